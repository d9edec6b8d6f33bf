// Package searchindex loads a Sphinx generated search index and answers
// term and object lookups against it. An Index is immutable once loaded and
// is safe for concurrent use.
package searchindex

import (
	"sort"
	"strings"
)

type Index struct {
	envVersion int
	docNames   []string
	fileNames  []string
	titles     []string
	terms      map[string][]int
	titleTerms map[string][]int
	objects    []object
	objTypes   map[int]string
	objNames   map[int]ObjectName
}

func (idx *Index) EnvVersion() int {
	return idx.envVersion
}

func (idx *Index) DocumentCount() int {
	return len(idx.docNames)
}

func (idx *Index) TermCount() int {
	return len(idx.terms)
}

func (idx *Index) ObjectCount() int {
	return len(idx.objects)
}

// Documents returns every page in document table order.
func (idx *Index) Documents() []DocumentRef {
	refs := make([]DocumentRef, len(idx.docNames))
	for i := range idx.docNames {
		refs[i] = idx.ref(i, false)
	}
	return refs
}

// Resolve returns the source filename of the document at position i.
func (idx *Index) Resolve(i int) (string, error) {
	if i < 0 || i >= len(idx.fileNames) {
		return "", &OutOfRangeError{Index: i, Size: len(idx.fileNames)}
	}
	return idx.fileNames[i], nil
}

func (idx *Index) Document(i int) (DocumentRef, error) {
	if i < 0 || i >= len(idx.docNames) {
		return DocumentRef{}, &OutOfRangeError{Index: i, Size: len(idx.docNames)}
	}
	return idx.ref(i, false), nil
}

// Lookup returns the documents containing term. Documents whose title holds
// the term come first; each tier keeps document table order.
func (idx *Index) Lookup(term string) []DocumentRef {
	if term == "" {
		return []DocumentRef{}
	}

	titleDocs := idx.titleTerms[term]
	bodyDocs := idx.terms[term]
	refs := make([]DocumentRef, 0, len(titleDocs)+len(bodyDocs))

	inTitle := make(map[int]struct{}, len(titleDocs))
	for _, d := range titleDocs {
		inTitle[d] = struct{}{}
		refs = append(refs, idx.ref(d, true))
	}
	for _, d := range bodyDocs {
		if _, ok := inTitle[d]; ok {
			continue
		}
		refs = append(refs, idx.ref(d, false))
	}

	return refs
}

// LookupAll returns the documents that match every one of terms, either in
// the title or in the body.
func (idx *Index) LookupAll(terms []string) []DocumentRef {
	wanted := uniqueTerms(terms)
	if len(wanted) == 0 {
		return []DocumentRef{}
	}

	counts := make([]int, len(idx.docNames))
	titleHit := make([]bool, len(idx.docNames))
	for _, term := range wanted {
		if term == "" {
			return []DocumentRef{}
		}
		for _, d := range mergePostings(idx.titleTerms[term], idx.terms[term]) {
			counts[d]++
		}
		for _, d := range idx.titleTerms[term] {
			titleHit[d] = true
		}
	}

	var titleTier, bodyTier []DocumentRef
	for d, count := range counts {
		if count != len(wanted) {
			continue
		}
		if titleHit[d] {
			titleTier = append(titleTier, idx.ref(d, true))
		} else {
			bodyTier = append(bodyTier, idx.ref(d, false))
		}
	}

	refs := make([]DocumentRef, 0, len(titleTier)+len(bodyTier))
	refs = append(refs, titleTier...)
	return append(refs, bodyTier...)
}

// FindObjects matches name case-insensitively against both the short and the
// full (prefix qualified) object name.
func (idx *Index) FindObjects(name string) []ObjectRef {
	name = strings.TrimSpace(name)
	if name == "" {
		return []ObjectRef{}
	}

	matches := make([]object, 0)
	for _, o := range idx.objects {
		if strings.EqualFold(o.name, name) || strings.EqualFold(o.fullName(), name) {
			matches = append(matches, o)
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].priority != matches[j].priority {
			return matches[i].priority < matches[j].priority
		}
		if matches[i].docIndex != matches[j].docIndex {
			return matches[i].docIndex < matches[j].docIndex
		}
		return matches[i].fullName() < matches[j].fullName()
	})

	refs := make([]ObjectRef, len(matches))
	for i, o := range matches {
		refs[i] = idx.objectRef(o)
	}
	return refs
}

func (idx *Index) ref(d int, titleMatch bool) DocumentRef {
	ref := DocumentRef{
		Index:      d,
		DocName:    idx.docNames[d],
		Document:   idx.fileNames[d],
		TitleMatch: titleMatch,
	}
	if d < len(idx.titles) {
		ref.Title = idx.titles[d]
	}
	return ref
}

func (idx *Index) objectRef(o object) ObjectRef {
	fullName := o.fullName()
	objName := idx.objNames[o.typeID]

	anchor := o.anchor
	switch anchor {
	case "":
		anchor = fullName
	case "-":
		anchor = objName.Type + "-" + fullName
	}

	return ObjectRef{
		Prefix:   o.prefix,
		Name:     o.name,
		FullName: fullName,
		Type:     idx.objTypes[o.typeID],
		TypeName: objName.Localized,
		Priority: o.priority,
		Anchor:   anchor,
		Document: idx.ref(o.docIndex, false),
	}
}

func uniqueTerms(terms []string) []string {
	seen := make(map[string]struct{}, len(terms))
	unique := make([]string, 0, len(terms))
	for _, term := range terms {
		if _, ok := seen[term]; ok {
			continue
		}
		seen[term] = struct{}{}
		unique = append(unique, term)
	}
	return unique
}

// mergePostings unions two sorted, duplicate free postings.
func mergePostings(a, b []int) []int {
	merged := make([]int, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] < b[j]:
			merged = append(merged, a[i])
			i++
		case a[i] > b[j]:
			merged = append(merged, b[j])
			j++
		default:
			merged = append(merged, a[i])
			i++
			j++
		}
	}
	merged = append(merged, a[i:]...)
	return append(merged, b[j:]...)
}
