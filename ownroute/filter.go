package ownroute

type IDSet map[int64]struct{}

func NewIDSet(ids ...int64) IDSet {
	set := make(IDSet, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func (s IDSet) Contains(id int64) bool {
	_, ok := s[id]
	return ok
}

// IDSetForDocument returns the ids of every element in the document
func IDSetForDocument(doc *MapDocument) IDSet {
	set := make(IDSet, len(doc.Elements))
	for _, element := range doc.Elements {
		if element == nil {
			continue
		}
		set[element.ID] = struct{}{}
	}
	return set
}

// FilterDocument returns a new document containing only the elements whose id is in keepIDs, in their original order.
// Ids are matched regardless of the element type.
func FilterDocument(doc *MapDocument, keepIDs IDSet) *MapDocument {
	filtered := &MapDocument{Elements: []*Element{}}
	if doc == nil {
		return filtered
	}

	for _, element := range doc.Elements {
		if element != nil && keepIDs.Contains(element.ID) {
			filtered.Elements = append(filtered.Elements, element)
		}
	}

	return filtered
}
