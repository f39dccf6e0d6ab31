package analysis

type Frequency struct {
	Text      string `json:"text"`
	Frequency int    `json:"frequency"`
}

type QuestionNode struct {
	ID        uint         `json:"id"`
	Name      string       `json:"questionName"`
	Kind      QuestionKind `json:"kind"`
	Responses []Frequency  `json:"responses"`

	entries map[string]int
}

// Answered reports whether any response was counted for the question. An
// unanswered WRITTEN question has no entries at all, an unanswered OPTIONS
// question has only zero entries.
func (q *QuestionNode) Answered() bool {
	for _, r := range q.Responses {
		if r.Frequency > 0 {
			return true
		}
	}
	return false
}

func (q *QuestionNode) entry(text string) int {
	if i, ok := q.entries[text]; ok {
		return i
	}
	q.Responses = append(q.Responses, Frequency{Text: text})
	q.entries[text] = len(q.Responses) - 1
	return len(q.Responses) - 1
}

func (q *QuestionNode) increment(text string) {
	q.Responses[q.entry(text)].Frequency++
}

type SubcategoryNode struct {
	ID           uint                `json:"id"`
	Name         string              `json:"subcategoryName"`
	Questions    []*QuestionNode     `json:"questions"`
	Calculations []CalculationResult `json:"calculations"`
}

type CategoryNode struct {
	ID            uint                `json:"id"`
	Name          string              `json:"categoryName"`
	Questions     []*QuestionNode     `json:"questions"`
	Subcategories []*SubcategoryNode  `json:"subcategories"`
	Calculations  []CalculationResult `json:"calculations"`
}

type Report struct {
	Categories []*CategoryNode `json:"categories"`
}

// Index is the category -> subcategory -> question tree of a form together
// with the lookups the response pass needs. Counting mutates the tree, so an
// Index serves a single submission.
type Index struct {
	report        *Report
	categories    map[uint]*CategoryNode
	subcategories map[uint]*SubcategoryNode
	questions     map[uint]*QuestionNode
	options       map[uint]Option
}

func BuildIndex(form Form) *Index {
	idx := &Index{
		report:        &Report{Categories: []*CategoryNode{}},
		categories:    make(map[uint]*CategoryNode),
		subcategories: make(map[uint]*SubcategoryNode),
		questions:     make(map[uint]*QuestionNode),
		options:       make(map[uint]Option),
	}

	for _, q := range form.Questions {
		if _, seen := idx.questions[q.ID]; seen {
			continue
		}

		cat, ok := idx.categories[q.Category.ID]
		if !ok {
			cat = &CategoryNode{
				ID:            q.Category.ID,
				Name:          q.Category.Name,
				Questions:     []*QuestionNode{},
				Subcategories: []*SubcategoryNode{},
				Calculations:  []CalculationResult{},
			}
			idx.categories[cat.ID] = cat
			idx.report.Categories = append(idx.report.Categories, cat)
		}

		node := &QuestionNode{
			ID:        q.ID,
			Name:      q.Name,
			Kind:      q.Kind,
			Responses: []Frequency{},
			entries:   make(map[string]int),
		}
		if q.Kind.IsOptions() {
			for _, opt := range q.Options {
				node.entry(opt.Text)
				idx.options[opt.ID] = opt
			}
		}
		idx.questions[q.ID] = node

		if q.Subcategory == nil {
			cat.Questions = append(cat.Questions, node)
			continue
		}
		sub, ok := idx.subcategories[q.Subcategory.ID]
		if !ok {
			sub = &SubcategoryNode{
				ID:           q.Subcategory.ID,
				Name:         q.Subcategory.Name,
				Questions:    []*QuestionNode{},
				Calculations: []CalculationResult{},
			}
			idx.subcategories[sub.ID] = sub
			cat.Subcategories = append(cat.Subcategories, sub)
		}
		sub.Questions = append(sub.Questions, node)
	}
	return idx
}

// Count folds the rows of one submission into the tree. Rows naming unknown
// questions or options are skipped.
func (idx *Index) Count(sub Submission) {
	for _, ro := range sub.ResponseOptions {
		node, ok := idx.questions[ro.QuestionID]
		if !ok || !node.Kind.IsOptions() || ro.OptionID == nil {
			continue
		}
		opt, ok := idx.options[*ro.OptionID]
		if !ok {
			continue
		}
		if _, known := node.entries[opt.Text]; !known {
			continue
		}
		node.increment(opt.Text)
	}

	counted := make(map[uint]bool)
	for _, r := range sub.Responses {
		node, ok := idx.questions[r.QuestionID]
		if !ok || node.Kind != KindWritten || counted[r.QuestionID] {
			continue
		}
		counted[r.QuestionID] = true
		if r.Text == "" {
			continue
		}
		node.increment(r.Text)
	}
}

func (idx *Index) Report() *Report {
	return idx.report
}

// Aggregate builds the frequency tree and attaches every calculation,
// evaluated against the same submission, to its category or subcategory node.
// Calculations whose scope has no node in the tree are dropped.
func Aggregate(form Form, sub Submission) *Report {
	idx := BuildIndex(form)
	idx.Count(sub)

	answers := CollectAnswers(form, sub)
	questions := questionsByID(form)
	for _, calc := range form.Calculations {
		result := Evaluate(calc, questions, answers)
		if calc.SubcategoryID != nil {
			if node, ok := idx.subcategories[*calc.SubcategoryID]; ok {
				node.Calculations = append(node.Calculations, result)
			}
			continue
		}
		if node, ok := idx.categories[calc.CategoryID]; ok {
			node.Calculations = append(node.Calculations, result)
		}
	}
	return idx.report
}

func questionsByID(form Form) map[uint]Question {
	m := make(map[uint]Question, len(form.Questions))
	for _, q := range form.Questions {
		if _, ok := m[q.ID]; !ok {
			m[q.ID] = q
		}
	}
	return m
}
