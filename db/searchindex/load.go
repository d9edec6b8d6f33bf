package searchindex

import (
	"bytes"
	"sort"
	"strconv"

	json "github.com/goccy/go-json"
)

const (
	keyDocNames   = "docnames"
	keyFileNames  = "filenames"
	keyEnvVersion = "envversion"
	keyTerms      = "terms"
	keyTitleTerms = "titleterms"
	keyTitles     = "titles"
	keyObjects    = "objects"
	keyObjNames   = "objnames"
	keyObjTypes   = "objtypes"
)

// Load parses a search index artifact, either the raw `Search.setIndex(...)`
// script or the bare JSON object, into an Index.
func Load(raw []byte) (*Index, error) {
	body, err := unwrap(raw)
	if err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return nil, malformed("", "artifact is empty")
	}

	body, err = quoteBareKeys(body)
	if err != nil {
		return nil, err
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal(body, &top); err != nil {
		return nil, malformed("", "not an object: %s", err.Error())
	}

	idx := &Index{}

	if err := decodeRequired(top, keyDocNames, &idx.docNames); err != nil {
		return nil, err
	}
	if err := decodeRequired(top, keyFileNames, &idx.fileNames); err != nil {
		return nil, err
	}
	if len(idx.docNames) != len(idx.fileNames) {
		return nil, malformed(keyFileNames, "has %d entries but %s has %d", len(idx.fileNames), keyDocNames, len(idx.docNames))
	}
	if err := decodeRequired(top, keyEnvVersion, &idx.envVersion); err != nil {
		return nil, err
	}

	if idx.terms, err = decodePostingTable(top, keyTerms, len(idx.docNames)); err != nil {
		return nil, err
	}
	if idx.titleTerms, err = decodePostingTable(top, keyTitleTerms, len(idx.docNames)); err != nil {
		return nil, err
	}

	if err := decodeOptional(top, keyTitles, &idx.titles); err != nil {
		return nil, err
	}
	if len(idx.titles) > 0 && len(idx.titles) != len(idx.docNames) {
		return nil, malformed(keyTitles, "has %d entries but %s has %d", len(idx.titles), keyDocNames, len(idx.docNames))
	}

	if idx.objTypes, err = decodeObjTypes(top); err != nil {
		return nil, err
	}
	if idx.objNames, err = decodeObjNames(top); err != nil {
		return nil, err
	}
	if idx.objects, err = decodeObjects(top, len(idx.docNames)); err != nil {
		return nil, err
	}

	return idx, nil
}

func decodeRequired(top map[string]json.RawMessage, key string, target any) error {
	raw, ok := top[key]
	if !ok {
		return malformed(key, "is missing")
	}
	return decodeValue(raw, key, target)
}

func decodeOptional(top map[string]json.RawMessage, key string, target any) error {
	raw, ok := top[key]
	if !ok {
		return nil
	}
	return decodeValue(raw, key, target)
}

func decodeValue(raw json.RawMessage, key string, target any) error {
	if isNull(raw) {
		return malformed(key, "is null")
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return malformed(key, "has the wrong shape: %s", err.Error())
	}
	return nil
}

func decodePostingTable(top map[string]json.RawMessage, key string, numDocs int) (map[string][]int, error) {
	var rawTable map[string]json.RawMessage
	if err := decodeRequired(top, key, &rawTable); err != nil {
		return nil, err
	}

	table := make(map[string][]int, len(rawTable))
	for term, raw := range rawTable {
		postings, err := decodePostings(raw)
		if err != nil {
			return nil, malformed(key, "entry '%s' %s", term, err.Error())
		}
		for _, d := range postings {
			if d < 0 || d >= numDocs {
				return nil, malformed(key, "entry '%s' refers to document %d of %d", term, d, numDocs)
			}
		}
		table[term] = postings
	}

	return table, nil
}

type postingShapeError struct{}

func (postingShapeError) Error() string {
	return "must be a document index or a list of document indices"
}

// decodePostings accepts a single document index or a list of them and
// returns the indices sorted and without duplicates.
func decodePostings(raw json.RawMessage) ([]int, error) {
	if isNull(raw) {
		return nil, postingShapeError{}
	}

	var single int
	if err := json.Unmarshal(raw, &single); err == nil {
		return []int{single}, nil
	}

	var many []int
	if err := json.Unmarshal(raw, &many); err != nil {
		return nil, postingShapeError{}
	}

	sort.Ints(many)
	postings := many[:0]
	for i, d := range many {
		if i > 0 && d == many[i-1] {
			continue
		}
		postings = append(postings, d)
	}
	return postings, nil
}

func decodeObjTypes(top map[string]json.RawMessage) (map[int]string, error) {
	var rawTypes map[string]string
	if err := decodeOptional(top, keyObjTypes, &rawTypes); err != nil {
		return nil, err
	}

	objTypes := make(map[int]string, len(rawTypes))
	for key, value := range rawTypes {
		id, err := strconv.Atoi(key)
		if err != nil {
			return nil, malformed(keyObjTypes, "key '%s' is not a type index", key)
		}
		objTypes[id] = value
	}
	return objTypes, nil
}

func decodeObjNames(top map[string]json.RawMessage) (map[int]ObjectName, error) {
	var rawNames map[string][]string
	if err := decodeOptional(top, keyObjNames, &rawNames); err != nil {
		return nil, err
	}

	objNames := make(map[int]ObjectName, len(rawNames))
	for key, value := range rawNames {
		id, err := strconv.Atoi(key)
		if err != nil {
			return nil, malformed(keyObjNames, "key '%s' is not a type index", key)
		}
		if len(value) != 3 {
			return nil, malformed(keyObjNames, "entry '%s' must hold domain, type and label", key)
		}
		objNames[id] = ObjectName{Domain: value[0], Type: value[1], Localized: value[2]}
	}
	return objNames, nil
}

// decodeObjects flattens the objects table. Older builds nest
// {prefix: {name: [doc, type, prio, anchor]}}, newer builds use
// {prefix: [[doc, type, prio, anchor, name], ...]}.
func decodeObjects(top map[string]json.RawMessage, numDocs int) ([]object, error) {
	var byPrefix map[string]json.RawMessage
	if err := decodeOptional(top, keyObjects, &byPrefix); err != nil {
		return nil, err
	}

	prefixes := make([]string, 0, len(byPrefix))
	for prefix := range byPrefix {
		prefixes = append(prefixes, prefix)
	}
	sort.Strings(prefixes)

	objects := make([]object, 0)
	for _, prefix := range prefixes {
		raw := bytes.TrimSpace(byPrefix[prefix])
		if len(raw) == 0 {
			return nil, malformed(keyObjects, "prefix '%s' is empty", prefix)
		}

		switch raw[0] {
		case '{':
			var byName map[string][]json.RawMessage
			if err := json.Unmarshal(raw, &byName); err != nil {
				return nil, malformed(keyObjects, "prefix '%s' has the wrong shape: %s", prefix, err.Error())
			}
			names := make([]string, 0, len(byName))
			for name := range byName {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				o, err := decodeObject(prefix, name, byName[name], numDocs)
				if err != nil {
					return nil, err
				}
				objects = append(objects, o)
			}

		case '[':
			var entries [][]json.RawMessage
			if err := json.Unmarshal(raw, &entries); err != nil {
				return nil, malformed(keyObjects, "prefix '%s' has the wrong shape: %s", prefix, err.Error())
			}
			for i, entry := range entries {
				if len(entry) < 5 {
					return nil, malformed(keyObjects, "prefix '%s' entry %d must hold five fields", prefix, i)
				}
				var name string
				if err := json.Unmarshal(entry[4], &name); err != nil {
					return nil, malformed(keyObjects, "prefix '%s' entry %d has a non string name", prefix, i)
				}
				o, err := decodeObject(prefix, name, entry[:4], numDocs)
				if err != nil {
					return nil, err
				}
				objects = append(objects, o)
			}

		default:
			return nil, malformed(keyObjects, "prefix '%s' must be an object or a list", prefix)
		}
	}

	return objects, nil
}

func decodeObject(prefix string, name string, fields []json.RawMessage, numDocs int) (object, error) {
	if len(fields) < 4 {
		return object{}, malformed(keyObjects, "'%s' must hold document, type, priority and anchor", name)
	}

	o := object{prefix: prefix, name: name}
	if err := json.Unmarshal(fields[0], &o.docIndex); err != nil {
		return object{}, malformed(keyObjects, "'%s' has a non integer document index", name)
	}
	if err := json.Unmarshal(fields[1], &o.typeID); err != nil {
		return object{}, malformed(keyObjects, "'%s' has a non integer type index", name)
	}
	if err := json.Unmarshal(fields[2], &o.priority); err != nil {
		return object{}, malformed(keyObjects, "'%s' has a non integer priority", name)
	}
	if err := json.Unmarshal(fields[3], &o.anchor); err != nil {
		return object{}, malformed(keyObjects, "'%s' has a non string anchor", name)
	}
	if o.docIndex < 0 || o.docIndex >= numDocs {
		return object{}, malformed(keyObjects, "'%s' refers to document %d of %d", name, o.docIndex, numDocs)
	}

	return o, nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
