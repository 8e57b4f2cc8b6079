package segment

// Snapshot is a copy of every accumulated field at one point in the stream.
// Fields a schema does not carry stay empty.
type Snapshot struct {
	Next         string `json:"next"`
	NextJP       string `json:"nextJp"`
	Refactored   string `json:"refactored"`
	RefactoredJP string `json:"refactoredJp"`
	Analysis     string `json:"analysis"`
	Note         string `json:"note"`
}

// Get returns the value of a field.
func (s Snapshot) Get(f Field) string {
	if p := s.ref(f); p != nil {
		return *p
	}
	return ""
}

// IsEmpty reports whether no field received any content.
func (s Snapshot) IsEmpty() bool {
	return s == Snapshot{}
}

func (s *Snapshot) set(f Field, v string) {
	if p := s.ref(f); p != nil {
		*p = v
	}
}

func (s *Snapshot) ref(f Field) *string {
	switch f {
	case FieldNext:
		return &s.Next
	case FieldNextJP:
		return &s.NextJP
	case FieldRefactored:
		return &s.Refactored
	case FieldRefactoredJP:
		return &s.RefactoredJP
	case FieldAnalysis:
		return &s.Analysis
	case FieldNote:
		return &s.Note
	}
	return nil
}
