package dto

import "bus-arrival-service/internal/domain"

const TimestampLayout = "2006-01-02 15:04:05"

type BusInfo struct {
	BusID                   string `json:"bus_id"`
	DistanceToTarget        int    `json:"distance_to_target"`
	DistanceToTargetDisplay string `json:"distance_to_target_display"`
	OptArrivalTime          int64  `json:"opt_arrival_time"`
	OptimisticTime          int    `json:"optimistic_time"`
	OptArrivalTimeDisplay   string `json:"opt_arrival_time_display"`
	OptimisticTimeDisplay   string `json:"optimistic_time_display"`
	NumberOfStationsAway    string `json:"number_of_stations_away"`
	Desc                    string `json:"desc"`
}

type LineRealTimeInfo struct {
	LineID                       string    `json:"line_id"`
	LineName                     string    `json:"line_name"`
	LineInfoShortDesc            string    `json:"line_info_short_desc"`
	LineDesc                     string    `json:"line_desc"`
	LineAssistDesc               string    `json:"line_assist_desc"`
	LineDepDesc                  string    `json:"line_dep_desc"`
	TargetStationName            string    `json:"target_station_name"`
	TargetStationNextStationName string    `json:"target_station_next_station_name"`
	RealtimeBusInfo              []BusInfo `json:"realtime_bus_info"`
}

type RealtimeResponse struct {
	Status     int                `json:"status"`
	Message    string             `json:"message"`
	Total      int                `json:"total"`
	Timestamp  string             `json:"timestamp"`
	Data       []LineRealTimeInfo `json:"data"`
	FrontLimit int                `json:"frontlimit"`
}

func FromLineReport(l domain.LineReport) LineRealTimeInfo {
	buses := make([]BusInfo, 0, len(l.Arrivals))
	for _, a := range l.Arrivals {
		buses = append(buses, BusInfo{
			BusID:                   a.BusID,
			DistanceToTarget:        a.DistanceMeters,
			DistanceToTargetDisplay: a.DistanceDisplay,
			OptArrivalTime:          a.ETAEpochMs,
			OptimisticTime:          a.ETASeconds,
			OptArrivalTimeDisplay:   a.ETAClockDisplay,
			OptimisticTimeDisplay:   a.ETARelativeDisplay,
			NumberOfStationsAway:    a.StationsAway,
			Desc:                    a.Status,
		})
	}

	return LineRealTimeInfo{
		LineID:                       l.LineID,
		LineName:                     l.LineName,
		LineInfoShortDesc:            l.ShortDesc,
		LineDesc:                     l.Desc,
		LineAssistDesc:               l.AssistDesc,
		LineDepDesc:                  l.DepartureDesc,
		TargetStationName:            l.TargetStopName,
		TargetStationNextStationName: l.NextStopName,
		RealtimeBusInfo:              buses,
	}
}
