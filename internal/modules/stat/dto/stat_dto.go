package dto

type Totals struct {
	Students int64 `json:"total_students"`
	Classes  int64 `json:"total_classes"`
	Books    int64 `json:"total_books"`
	// SeatsTaken and SeatsTotal sum current_students and max_students over all classes.
	SeatsTaken int64 `json:"seats_taken"`
	SeatsTotal int64 `json:"seats_total"`
	Unassigned int64 `json:"unassigned_students"`
}
