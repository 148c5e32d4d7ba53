package service

// Anggota is one board member (pengurus) of the RT.
type Anggota struct {
	ID      int    `json:"id"`
	Nama    string `json:"nama"`
	Jabatan string `json:"jabatan"`
	Telepon string `json:"telepon"`
	Periode string `json:"periode"`
}

var pengurus = []Anggota{
	{ID: 1, Nama: "Bapak Hendra Wijaya", Jabatan: "Ketua RT", Telepon: "081211110001", Periode: "2023-2026"},
	{ID: 2, Nama: "Ibu Sri Lestari", Jabatan: "Sekretaris", Telepon: "081211110002", Periode: "2023-2026"},
	{ID: 3, Nama: "Bapak Agus Purnomo", Jabatan: "Bendahara", Telepon: "081211110003", Periode: "2023-2026"},
	{ID: 4, Nama: "Bapak Rudi Hartono", Jabatan: "Seksi Keamanan", Telepon: "081211110004", Periode: "2023-2026"},
	{ID: 5, Nama: "Ibu Maya Sari", Jabatan: "Seksi Kebersihan", Telepon: "081211110005", Periode: "2023-2026"},
}

// Pengurus returns a copy of the board member fixtures.
func Pengurus() []Anggota {
	out := make([]Anggota, len(pengurus))
	copy(out, pengurus)
	return out
}
