package dto

type ResolvedLineResponse struct {
	LineID            string `json:"line_id"`
	LineName          string `json:"line_name"`
	TargetStationID   string `json:"target_station_id"`
	TargetStationName string `json:"target_station_name"`
	TargetOrder       int    `json:"target_order"`
}

type ListResolvedLinesResponse struct {
	Lines []ResolvedLineResponse `json:"lines"`
}

type TimetableEntryResponse struct {
	Time string `json:"time"`
	Desc string `json:"desc,omitempty"`
}

type TimetableResponse struct {
	LineID    string                   `json:"line_id"`
	Timetable []TimetableEntryResponse `json:"timetable"`
}
