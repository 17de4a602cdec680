package models

// Service is an offering in the agency catalogue. Its process steps drive milestone billing.
type Service struct {
	ID      string        `bson:"id" json:"id"`
	Title   string        `bson:"title" json:"title"`
	Slug    string        `bson:"slug" json:"slug"`
	Process []ProcessStep `bson:"process,omitempty" json:"process,omitempty"`
}

type ProcessStep struct {
	Step        string `bson:"step" json:"step"`
	Description string `bson:"description" json:"description"`
}
