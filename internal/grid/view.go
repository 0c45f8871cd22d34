package grid

import "log/slog"

// Options configures a View. Zero fields fall back to package defaults.
type Options struct {
	ColumnCap     int
	RenderCeiling int
	GroupKey      string
	Locale        string
	Logger        *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.ColumnCap <= 0 {
		o.ColumnCap = DefaultColumnCap
	}
	if o.RenderCeiling <= 0 {
		o.RenderCeiling = DefaultRenderCeiling
	}
	if o.GroupKey == "" {
		o.GroupKey = DefaultGroupKey
	}
	if o.Locale == "" {
		o.Locale = "en"
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// Dataset is one loaded input. Remote datasets set Remote and TotalCount
// to the server-reported row count.
type Dataset struct {
	Kind       Kind
	Headers    []string
	Records    []Record
	Remote     bool
	TotalCount int
}

// TreeDataset normalizes a tree into a Dataset.
func TreeDataset(root *Node) Dataset {
	return Dataset{Kind: KindTree, Records: NormalizeTree(root)}
}

// FlatDataset normalizes rows into a local Dataset.
func FlatDataset(headers []string, rows []any, logger *slog.Logger) Dataset {
	return Dataset{Kind: KindFlat, Headers: headers, Records: NormalizeFlat(rows, logger)}
}

// Result is everything the presentation layer needs for one frame.
type Result struct {
	Kind       Kind
	Discovered []string
	Columns    []string
	Groups     []ColumnGroup
	Sort       SortState
	Filter     string
	Rows       Governed

	// Defaulted is set on the one Compute call that stored a default
	// selection for the current load.
	Defaulted *SelectionDefaulted
}

// View holds the session state of one table and runs the pipeline.
type View struct {
	opts      Options
	coll      *Collator
	selection *Selection

	data           Dataset
	sort           SortState
	filter         string
	defaultApplied bool
}

// NewView returns a View that shares sel with its host. A nil sel gets a
// fresh empty selection.
func NewView(opts Options, sel *Selection) *View {
	opts = opts.withDefaults()
	if sel == nil {
		sel = &Selection{}
	}
	return &View{
		opts:      opts,
		coll:      NewCollator(opts.Locale),
		selection: sel,
	}
}

// Load replaces the dataset with a new one. The default-selection write is
// armed again for this load.
func (v *View) Load(ds Dataset) {
	v.data = ds
	v.defaultApplied = false
}

// ReplaceRecords swaps the rows of the current dataset, as happens when a
// remote page arrives. Headers and the default-selection flag are kept.
func (v *View) ReplaceRecords(records []Record, total int) {
	v.data.Records = records
	v.data.TotalCount = total
}

// SetHeaders updates the declared headers of a flat dataset.
func (v *View) SetHeaders(headers []string) {
	v.data.Headers = headers
}

// Dataset returns the current dataset.
func (v *View) Dataset() Dataset { return v.data }

// Selection returns the shared selection.
func (v *View) Selection() *Selection { return v.selection }

// SetFilter sets the free-text filter.
func (v *View) SetFilter(text string) { v.filter = text }

// Filter returns the free-text filter.
func (v *View) Filter() string { return v.filter }

// ToggleSort applies a header click on column.
func (v *View) ToggleSort(column string) SortState {
	v.sort = v.sort.Toggle(column)
	return v.sort
}

// SetSort replaces the sort state.
func (v *View) SetSort(s SortState) { v.sort = s }

// SortState returns the active sort.
func (v *View) SortState() SortState { return v.sort }

// Compute runs the pipeline over the current dataset and session state.
func (v *View) Compute() Result {
	discovered := DiscoverColumns(v.data.Kind, v.data.Records, v.data.Headers)
	res := ResolveColumns(discovered, v.selection, v.opts.ColumnCap)

	var emitted *SelectionDefaulted
	if res.Defaulted != nil && !v.defaultApplied {
		v.selection.Set(res.Defaulted.Columns)
		v.defaultApplied = true
		emitted = res.Defaulted
		v.opts.Logger.Debug("selection defaulted",
			"columns", len(res.Defaulted.Columns),
			"discovered", len(discovered),
		)
	}

	rows := Filter(v.data.Records, v.filter)
	rows = Sort(rows, v.sort, v.coll)
	grouped := GroupRecords(rows, res.Active, v.opts.GroupKey)

	total := 0
	if v.data.Remote {
		total = v.data.TotalCount
	}

	return Result{
		Kind:       v.data.Kind,
		Discovered: discovered,
		Columns:    res.Active,
		Groups:     res.Groups,
		Sort:       v.sort,
		Filter:     v.filter,
		Rows:       Govern(grouped, v.opts.RenderCeiling, total),
		Defaulted:  emitted,
	}
}
