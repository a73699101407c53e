package domain

import (
	"fmt"
	"time"
)

// SourceKind identifies which adapter produced a lead. It replaces sniffing
// the "yelp_api_" prefix out of SourceID at every consumer; the prefix is
// still written into SourceID so composite keys stay stable.
type SourceKind string

const (
	SourceMaps SourceKind = "maps"
	SourceYelp SourceKind = "yelp"
)

// Lead is one discovered business, scoped to the (keyword, city) search that
// found it. Leads are immutable after insert.
type Lead struct {
	ID            int64      `json:"id"`
	Source        SourceKind `json:"source"`
	SourceID      string     `json:"sourceId"`
	BusinessName  string     `json:"businessName"`
	Street        string     `json:"street"`
	City          string     `json:"city"`
	ZipCode       string     `json:"zipCode"`
	Phone         string     `json:"phone"`
	Website       string     `json:"website"`
	MapURL        string     `json:"mapUrl"`
	ReviewCount   int        `json:"reviewCount"`
	Rating        float64    `json:"rating"`
	Category      string     `json:"category"`
	SearchKeyword string     `json:"searchKeyword"`
	TargetCity    string     `json:"targetCity"`
	FoundAt       time.Time  `json:"foundAt"`

	// ClientEmail is attached at read time; the store itself is already
	// partitioned per client.
	ClientEmail string `json:"clientEmail,omitempty"`
}

// CompositeKey is the per-client uniqueness key for a lead.
func (l Lead) CompositeKey() string {
	return CompositeKey(l.SourceID, l.SearchKeyword, l.TargetCity)
}

func CompositeKey(sourceID, keyword, targetCity string) string {
	return fmt.Sprintf("%s_%s_%s", sourceID, keyword, targetCity)
}

// ScanStatus values recorded in a client's scan history.
const (
	ScanSuccess = "success"
	ScanFailed  = "failed"
	ScanSkipped = "skipped"
)

// ScanHistoryEntry records the outcome of one adapter invocation.
type ScanHistoryEntry struct {
	ID         int64     `json:"id"`
	Status     string    `json:"status"`
	LeadsFound int       `json:"leadsFound"`
	Error      string    `json:"error,omitempty"`
	ScannedAt  time.Time `json:"scannedAt"`
}

// Batch groups the leads one (keyword, city) combination produced from a
// single source. Combinations that found nothing never become batches.
type Batch struct {
	Keyword    string `json:"keyword"`
	TargetCity string `json:"targetCity"`
	Leads      []Lead `json:"leads"`
}

// Batches is the aggregate one scan pass hands to the notification boundary.
type Batches struct {
	Maps []Batch `json:"maps"`
	Yelp []Batch `json:"yelp"`
}

func (b Batches) Total() int {
	n := 0
	for _, batch := range b.Maps {
		n += len(batch.Leads)
	}
	for _, batch := range b.Yelp {
		n += len(batch.Leads)
	}
	return n
}

func (b Batches) Empty() bool {
	return len(b.Maps) == 0 && len(b.Yelp) == 0
}
