package analytics

// Engine wires the analytics components around one set of dependencies
type Engine struct {
	Baselines *BaselineCalculator
	Current   *CurrentAggregator
	Occupancy *OccupancyEngine
	Batch     *BatchOrchestrator
	Locations *Locator
	Settings  Settings
}

// NewEngine builds every component on the given store and cache
func NewEngine(deps Deps, settings Settings) *Engine {
	deps = deps.withDefaults()
	baselines := NewBaselineCalculator(deps, settings)
	current := NewCurrentAggregator(deps, settings)
	occupancy := NewOccupancyEngine(deps, settings, current, baselines)
	return &Engine{
		Baselines: baselines,
		Current:   current,
		Occupancy: occupancy,
		Batch:     NewBatchOrchestrator(deps, occupancy, settings.Concurrency),
		Locations: occupancy.locations,
		Settings:  settings,
	}
}
