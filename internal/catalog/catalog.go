// Package catalog holds the HSC subject listing and each student's subject selection.
package catalog

type Topic struct {
	Name string `json:"name"`
	Icon string `json:"icon"`
}

type Subject struct {
	Name      string  `json:"name"`
	Icon      string  `json:"icon"`
	ItemCount int     `json:"item_count"`
	Topics    []Topic `json:"topics"`
}

// Catalog is read-only once built.
type Catalog struct {
	subjects []Subject
}

func NewCatalog(subjects []Subject) *Catalog {
	return &Catalog{subjects: subjects}
}

// Subjects returns the subjects in display order. Callers must not modify the result.
func (c *Catalog) Subjects() []Subject {
	return c.subjects
}

// Default is the HSC subject list shown to every student.
func Default() *Catalog {
	return NewCatalog([]Subject{
		{
			Name: "Mathematics Advanced", Icon: "📐", ItemCount: 48,
			Topics: []Topic{
				{Name: "Functions", Icon: "📈"},
				{Name: "Trigonometric Functions", Icon: "📏"},
				{Name: "Calculus", Icon: "∫"},
				{Name: "Financial Mathematics", Icon: "💰"},
				{Name: "Statistical Analysis", Icon: "📊"},
			},
		},
		{
			Name: "Mathematics Extension 1", Icon: "➗", ItemCount: 36,
			Topics: []Topic{
				{Name: "Proof by Induction", Icon: "🔁"},
				{Name: "Vectors", Icon: "➡️"},
				{Name: "Inverse Trigonometric Functions", Icon: "🔄"},
				{Name: "Binomial Distribution", Icon: "🎲"},
			},
		},
		{
			Name: "English Advanced", Icon: "📚", ItemCount: 32,
			Topics: []Topic{
				{Name: "Texts and Human Experiences", Icon: "🧠"},
				{Name: "Textual Conversations", Icon: "💬"},
				{Name: "Critical Study of Literature", Icon: "🔍"},
				{Name: "The Craft of Writing", Icon: "✍️"},
			},
		},
		{
			Name: "Physics", Icon: "⚛️", ItemCount: 40,
			Topics: []Topic{
				{Name: "Advanced Mechanics", Icon: "🚀"},
				{Name: "Electromagnetism", Icon: "🧲"},
				{Name: "The Nature of Light", Icon: "💡"},
				{Name: "From the Universe to the Atom", Icon: "🌌"},
			},
		},
		{
			Name: "Chemistry", Icon: "🧪", ItemCount: 38,
			Topics: []Topic{
				{Name: "Equilibrium and Acid Reactions", Icon: "⚖️"},
				{Name: "Acid/Base Reactions", Icon: "🧫"},
				{Name: "Organic Chemistry", Icon: "🧬"},
				{Name: "Applying Chemical Ideas", Icon: "🔬"},
			},
		},
		{
			Name: "Biology", Icon: "🌿", ItemCount: 34,
			Topics: []Topic{
				{Name: "Heredity", Icon: "🧬"},
				{Name: "Genetic Change", Icon: "🔀"},
				{Name: "Infectious Disease", Icon: "🦠"},
				{Name: "Non-infectious Disease and Disorders", Icon: "🩺"},
			},
		},
		{
			Name: "Economics", Icon: "💹", ItemCount: 28,
			Topics: []Topic{
				{Name: "The Global Economy", Icon: "🌏"},
				{Name: "Australia's Place in the Global Economy", Icon: "🦘"},
				{Name: "Economic Issues", Icon: "📉"},
				{Name: "Economic Policies and Management", Icon: "🏛️"},
			},
		},
		{
			Name: "Modern History", Icon: "🏺", ItemCount: 26,
			Topics: []Topic{
				{Name: "Power and Authority in the Modern World", Icon: "👑"},
				{Name: "National Studies", Icon: "🗺️"},
				{Name: "Peace and Conflict", Icon: "🕊️"},
				{Name: "Change in the Modern World", Icon: "⏳"},
			},
		},
		{
			Name: "Software Engineering", Icon: "💻", ItemCount: 30,
			Topics: []Topic{
				{Name: "Secure Software Architecture", Icon: "🔐"},
				{Name: "Programming for the Web", Icon: "🌐"},
				{Name: "Software Automation", Icon: "🤖"},
				{Name: "Software Engineering Project", Icon: "🛠️"},
			},
		},
	})
}
