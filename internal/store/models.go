// Package store is the embedded RT database: an in-memory SQLite engine whose
// full image is persisted to a key-value slot after every write.
package store

// Resident statuses.
const (
	WargaTetap   = "Tetap"   // permanent
	WargaKontrak = "Kontrak" // leased
	WargaBaru    = "Baru"    // newcomer
)

// Security report statuses.
const (
	ReportPending  = "Pending"
	ReportProses   = "Proses"
	ReportResolved = "Resolved"
)

// Security report priorities.
const (
	PriorityHigh   = "High"
	PriorityMedium = "Medium"
	PriorityLow    = "Low"
)

// Warga is one resident row. Field order matches the insert parameter order.
type Warga struct {
	ID      int64  `json:"id"`
	Nama    string `json:"nama"`
	Alamat  string `json:"alamat"`
	Status  string `json:"status"`
	Telepon string `json:"telepon"`
}

// SecurityReport is one security_reports row.
type SecurityReport struct {
	ID             int64  `json:"id"`
	JenisKejadian  string `json:"jenis_kejadian"`
	Lokasi         string `json:"lokasi"`
	Tanggal        string `json:"tanggal"`
	Status         string `json:"status"`
	Priority       string `json:"priority"`
	NamaPelapor    string `json:"nama_pelapor"`
	TeleponPelapor string `json:"telepon_pelapor"`
	Kronologi      string `json:"kronologi"`
}

// ReportDefaults are stamped on every new security report. Whatever status or
// priority the caller supplied is replaced.
type ReportDefaults struct {
	Status   string
	Priority string
}

// DefaultReportDefaults returns Pending / Medium.
func DefaultReportDefaults() ReportDefaults {
	return ReportDefaults{Status: ReportPending, Priority: PriorityMedium}
}

// Apply returns r with the defaults stamped on. Empty defaults fall back to
// Pending / Medium.
func (d ReportDefaults) Apply(r SecurityReport) SecurityReport {
	r.Status = d.Status
	if r.Status == "" {
		r.Status = ReportPending
	}
	r.Priority = d.Priority
	if r.Priority == "" {
		r.Priority = PriorityMedium
	}
	return r
}
