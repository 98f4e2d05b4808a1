package persona

// Persona is a backend assistant profile the chat UI can target.
type Persona struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Seed provides the fixed persona list. It is not fetched from the relay backend.
func Seed() []Persona {
	return []Persona{
		{
			ID:          0,
			Name:        "General Assistant",
			Description: "General-purpose security assistant with access to all knowledge",
		},
		{
			ID:          1,
			Name:        "Security Analyst",
			Description: "Focused on threat analysis and incident response",
		},
		{
			ID:          2,
			Name:        "Compliance Expert",
			Description: "Specializes in security compliance and regulations",
		},
	}
}
