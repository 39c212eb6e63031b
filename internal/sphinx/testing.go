package sphinx

// NewTestIndex builds a small but complete search-index record modeled on
// the published index of an oceanographic data-access package. It is
// exported for use in integration tests.
//
// Page layout:
//
//	0 ctd, 1 hydrophone, 2 index, 3 license, 4 request, 5 surface_buoy, 6 visualize
func NewTestIndex() *Index {
	terms := map[string]Posting{}
	addTerm := func(word string, indices ...int) {
		terms[NormalizeTerm(word)] = NewPosting(indices...)
	}
	addTerm("hydrophone", 1, 2, 4)
	addTerm("ctd", 0, 2, 4)
	addTerm("data", 0, 1, 2, 4, 5, 6)
	addTerm("acoustic", 1, 4, 6)
	addTerm("spectrogram", 1, 6)
	addTerm("buoy", 4, 5)
	addTerm("ocean", 2)
	addTerm("request", 2, 4)
	addTerm("starttime", 4)
	addTerm("endtime", 4)
	addTerm("fmin", 1, 6)
	addTerm("fmax", 1, 6)
	addTerm("max_workers", 4)
	addTerm("get_acoustic_data", 2, 4)
	addTerm("data_gap_mode", 4)
	addTerm("license", 3)
	addTerm("mit", 3)

	titleterms := map[string]Posting{}
	addTitleTerm := func(word string, indices ...int) {
		titleterms[NormalizeTerm(word)] = NewPosting(indices...)
	}
	addTitleTerm("ctd", 0)
	addTitleTerm("hydrophone", 1)
	addTitleTerm("welcome", 2)
	addTitleTerm("ooipy", 2)
	addTitleTerm("documentation", 2)
	addTitleTerm("license", 3)
	addTitleTerm("request", 4)
	addTitleTerm("surface", 5)
	addTitleTerm("buoy", 5)
	addTitleTerm("visualize", 6)

	return &Index{
		Docnames: []string{
			"ctd", "hydrophone", "index", "license",
			"request", "surface_buoy", "visualize",
		},
		Titles: []string{
			"CTD", "Hydrophone", "Welcome to OOIPY's documentation!", "License",
			"Request", "Surface Buoy", "Visualize",
		},
		Filenames: []string{
			"ctd.rst", "hydrophone.rst", "index.rst", "license.rst",
			"request.rst", "surface_buoy.rst", "visualize.rst",
		},
		Envversion: map[string]int{
			"sphinx":                 56,
			"sphinx.domains.math":    2,
			"sphinx.domains.python":  2,
			"sphinx.domains.std":     1,
			"sphinx.ext.viewcode":    1,
			"sphinx.ext.intersphinx": 1,
		},
		Objnames: map[string]ObjectName{
			"0": {Domain: "py", Type: "module", Display: "Python module"},
			"1": {Domain: "py", Type: "method", Display: "Python method"},
			"2": {Domain: "py", Type: "function", Display: "Python function"},
		},
		Objtypes: map[string]string{
			"0": "py:module",
			"1": "py:method",
			"2": "py:function",
		},
		Objects: map[string]map[string]ObjectEntry{
			"": {
				"ooipy": {DocIndex: 2, TypeID: 0, Priority: 0, Anchor: "-"},
			},
			"ooipy.request.hydrophone_request": {
				"get_acoustic_data":        {DocIndex: 4, TypeID: 2, Priority: 1, Anchor: "-"},
				"get_acoustic_data_concat": {DocIndex: 4, TypeID: 2, Priority: 1, Anchor: "-"},
			},
			"ooipy.hydrophone.basic": {
				"HydrophoneData":                   {DocIndex: 1, TypeID: 0, Priority: 0, Anchor: "-"},
				"HydrophoneData.compute_psd_welch": {DocIndex: 1, TypeID: 1, Priority: 1, Anchor: "-"},
			},
		},
		Terms:      terms,
		Titleterms: titleterms,
	}
}
