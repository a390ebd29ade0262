package stats

// DailyStat counts answered and missed calls for one calendar date.
type DailyStat struct {
	Date     string `json:"date"`
	Answered int    `json:"answered"`
	Missed   int    `json:"missed"`
	Total    int    `json:"total"`
}

// ExtensionStat summarizes answered-call performance of one extension.
type ExtensionStat struct {
	Extension     string  `json:"extension"`
	CallCount     int     `json:"call_count"`
	TotalDuration int     `json:"total_duration"`
	AvgDuration   float64 `json:"avg_duration"`
}

// UniqueCallerStat counts distinct caller numbers for one calendar date;
// each number is counted once per day no matter how often it called.
type UniqueCallerStat struct {
	Date          string `json:"date"`
	UniqueCallers int    `json:"unique_callers"`
	TotalCalls    int    `json:"total_calls"`
}
