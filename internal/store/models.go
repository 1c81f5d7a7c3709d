package store

// Vn is a single catalogued visual novel.
type Vn struct {
	ID    int64
	Title string
}

// Hook is a decoding hook for one release/version of a Vn.
type Hook struct {
	ID      int64
	VnID    int64
	Version string
	Code    string
}

// VnData is a Vn together with every hook recorded for it.
type VnData struct {
	Vn    Vn
	Hooks []Hook
}

// Stats summarizes table sizes, used by the HTTP admin dashboard and the
// "stats" CLI subcommand.
type Stats struct {
	Vns   int64
	Hooks int64
}
