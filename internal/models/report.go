package models

// WorkloadReportItem summarises one professor's teaching load for a week.
type WorkloadReportItem struct {
	ProfessorID   string  `json:"professor_id"`
	ProfessorName string  `json:"professor_name"`
	TotalHours    float64 `json:"total_hours"`
	TotalSubjects int     `json:"total_subjects"`
	TotalClasses  int     `json:"total_classes"`
}

// WorkloadReport is the full weekly workload breakdown.
type WorkloadReport struct {
	WeekStartDate int64                `json:"week_start_date"`
	Items         []WorkloadReportItem `json:"items"`
}

// RoomUtilizationItem summarises a room's booked hours for a week.
type RoomUtilizationItem struct {
	RoomID                string  `json:"room_id"`
	RoomCode              string  `json:"room_code"`
	RoomName              string  `json:"room_name"`
	TotalHours            float64 `json:"total_hours"`
	UtilizationPercentage float64 `json:"utilization_percentage"`
	TotalBookings         int     `json:"total_bookings"`
}

// RoomUtilizationReport is the full weekly room usage breakdown.
type RoomUtilizationReport struct {
	WeekStartDate int64                 `json:"week_start_date"`
	WindowHours   float64               `json:"window_hours"`
	Items         []RoomUtilizationItem `json:"items"`
}
