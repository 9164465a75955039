package synth

// Voice is one entry of the fixed kokoro speaker catalog. Voices are
// referenced by id only; the catalog is not user-editable.
type Voice struct {
	ID   int
	Name string
}

var catalog = []Voice{
	{0, "American Female"},
	{1, "AF - Bella"},
	{2, "AF - Nicole"},
	{3, "AF - Sarah"},
	{4, "AF - Sky"},
	{5, "AM - Adam"},
	{6, "AM - Michael"},
	{7, "BF - Emma"},
	{8, "BF - Isabella"},
	{9, "BM - George"},
	{10, "BM - Lewis"},
}

// Voices returns a copy of the speaker catalog.
func Voices() []Voice {
	out := make([]Voice, len(catalog))
	copy(out, catalog)
	return out
}

// VoiceName returns the display name for a voice id, or "" when unknown.
func VoiceName(id int) string {
	for _, v := range catalog {
		if v.ID == id {
			return v.Name
		}
	}
	return ""
}
