package budget

// CategoryPrefixLength is the number of leading characters of a classifier code that name its category
// when no explicit association exists ("2.1.1.9.1.4" -> "2.1").
const CategoryPrefixLength = 3

type CategoryRefKind int

const (
	// CategoryInferred means the category was derived from the classifier code prefix.
	CategoryInferred CategoryRefKind = iota
	// CategoryExplicit means the classifier row carries a category id.
	CategoryExplicit
)

// CategoryRef links a classifier to its category, either explicitly by id or by code prefix.
type CategoryRef struct {
	Kind       CategoryRefKind
	CategoryId int
	Prefix     string
}

func ExplicitCategory(categoryId int) CategoryRef {
	return CategoryRef{Kind: CategoryExplicit, CategoryId: categoryId}
}

func InferredCategory(prefix string) CategoryRef {
	return CategoryRef{Kind: CategoryInferred, Prefix: prefix}
}

func (r CategoryRef) IsExplicit() bool {
	return r.Kind == CategoryExplicit
}

type Classifier struct {
	Id          int
	Code        string
	Description string
	Category    CategoryRef
}

// NewUnlinkedClassifier builds a classifier known only by its code, as found in fact rows
// whose classifier is missing from the reference data.
func NewUnlinkedClassifier(code string) Classifier {
	return Classifier{Code: code, Category: InferredCategory(CategoryPrefix(code))}
}

// CategoryPrefix returns the category part of a classifier code. Codes shorter than the prefix
// length are returned whole.
func CategoryPrefix(code string) string {
	if len(code) < CategoryPrefixLength {
		return code
	}
	return code[:CategoryPrefixLength]
}
