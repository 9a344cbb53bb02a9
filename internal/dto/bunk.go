package dto

// AddBunkRequest logs an absence the feed has not reported.
type AddBunkRequest struct {
	Date        string `json:"date" validate:"required,max=120"`
	Description string `json:"description" validate:"required,max=200"`
	Note        string `json:"note" validate:"max=500"`
}

// NoteRequest carries a free-text note for notes, duty leave and presence corrections.
type NoteRequest struct {
	Note string `json:"note" validate:"max=500"`
}
