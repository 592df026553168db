package recorder

// PostRecord captures one publish attempt, sale-triggered or floor alert.
type PostRecord struct {
	Kind       string // "sale" or "floor"
	AssetID    string
	Buyer      string
	Seller     string
	BuyerTier  string
	SellerTier string
	Narrative  string
	Price      string
	Symbol     string
	Text       string
	HadMedia   bool
	Published  bool
}

// RunRecord captures one pipeline run summary.
type RunRecord struct {
	RunID     string
	Fetched   int
	Attempted int
	Published int
	Skipped   int
	Failed    int
}

// Recorder persists post and run history for later analysis.
type Recorder interface {
	RecordPost(rec *PostRecord) error
	RecordRun(rec *RunRecord) error
	Close() error
}
