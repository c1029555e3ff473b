package analytics

// Tracker accepts analytics events without blocking. *Collector implements
// it.
type Tracker interface {
	Track(event any)
}
