package index

import "sort"

// Posting records the term frequency of one word in one document.
type Posting struct {
	DocID int     `json:"doc_id"`
	TF    float64 `json:"tf"`
}

// PostingList is ordered by ascending DocID.
type PostingList []Posting

// search returns the position of docID, or where it would be inserted.
func (pl PostingList) search(docID int) int {
	return sort.Search(len(pl), func(i int) bool { return pl[i].DocID >= docID })
}

// Contains reports whether the list holds a posting for docID.
func (pl PostingList) Contains(docID int) bool {
	i := pl.search(docID)
	return i < len(pl) && pl[i].DocID == docID
}

// insert adds p in DocID order and returns the updated list. Ids usually
// arrive in ascending order, which makes this an append. An existing
// posting for p.DocID wins.
func (pl PostingList) insert(p Posting) PostingList {
	if n := len(pl); n == 0 || pl[n-1].DocID < p.DocID {
		return append(pl, p)
	}
	i := pl.search(p.DocID)
	if pl[i].DocID == p.DocID {
		return pl
	}
	pl = append(pl, Posting{})
	copy(pl[i+1:], pl[i:])
	pl[i] = p
	return pl
}

type TermEntry struct {
	Term     string
	Postings PostingList
}
