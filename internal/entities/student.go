package entities

import "strings"

// Student is the stored profile of one student. It is persisted as a JSON
// document whose id and pk fields address it within the collection.
type Student struct {
	ID             string `json:"id" form:"id" binding:"omitempty,max=255,excludesall=/\\?#"`
	PK             int    `json:"pk" form:"pk"`
	Name           string `json:"name" form:"name" binding:"required,max=200"`
	Email          string `json:"email,omitempty" form:"email" binding:"omitempty,email,max=254"`
	Phone          string `json:"phone,omitempty" form:"phone" binding:"omitempty,max=40"`
	Major          string `json:"major,omitempty" form:"major" binding:"omitempty,max=100"`
	EnrollmentYear int    `json:"enrollmentYear,omitempty" form:"enrollmentYear" binding:"omitempty,min=1900,max=2100"`
}

func (s *Student) DocumentID() string {
	return s.ID
}

func (s *Student) SetDocumentID(id string) {
	s.ID = id
}

func (s *Student) PartitionKey() int {
	return s.PK
}

// DisplayName returns the trimmed name, or the id when no name is set.
func (s *Student) DisplayName() string {
	if name := strings.TrimSpace(s.Name); name != "" {
		return name
	}
	return s.ID
}
