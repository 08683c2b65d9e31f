package budget

type MatchMode int

const (
	MatchAll MatchMode = iota
	MatchExact
	MatchPrefix
)

// ClassifierMatch filters facts by classifier code. The zero value matches every classifier.
type ClassifierMatch struct {
	Mode  MatchMode
	Value string
}

func AnyClassifier() ClassifierMatch {
	return ClassifierMatch{Mode: MatchAll}
}

func ClassifierCode(code string) ClassifierMatch {
	return ClassifierMatch{Mode: MatchExact, Value: code}
}

// ClassifierPrefix matches codes starting with prefix. An empty prefix matches everything.
func ClassifierPrefix(prefix string) ClassifierMatch {
	if prefix == "" {
		return AnyClassifier()
	}
	return ClassifierMatch{Mode: MatchPrefix, Value: prefix}
}

func (m ClassifierMatch) Matches(code string) bool {
	switch m.Mode {
	case MatchExact:
		return code == m.Value
	case MatchPrefix:
		return len(code) >= len(m.Value) && code[:len(m.Value)] == m.Value
	default:
		return true
	}
}

type AllocationQuery struct {
	Year       int
	Unit       *int
	Classifier ClassifierMatch
}

type ExecutionQuery struct {
	Year       int
	Month      *int
	Unit       *int
	Classifier ClassifierMatch
}

// Scope is a set of filters shared by allocation and execution fetches.
type Scope struct {
	Year       int
	Unit       *int
	Classifier ClassifierMatch
}

func (s Scope) Allocations() AllocationQuery {
	return AllocationQuery{Year: s.Year, Unit: s.Unit, Classifier: s.Classifier}
}

func (s Scope) Executions() ExecutionQuery {
	return ExecutionQuery{Year: s.Year, Unit: s.Unit, Classifier: s.Classifier}
}
