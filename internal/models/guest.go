package models

// Guest represents an invitee record in the backend
type Guest struct {
	Name   string `json:"name"`
	Email  string `json:"email"`
	Gender string `json:"gender"`
	Phone  string `json:"phone"`
}

// InputRow is one invitee row read from the source CSV
type InputRow struct {
	Name     string
	Email    string
	Gender   string
	Phone    string
	PlusOnes int
}

// Record is the minimal shape of any record returned by the backend
type Record struct {
	ID string `json:"id"`
}
