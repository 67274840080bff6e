package engine

import (
	"gorm.io/gorm"

	"github.com/campfirehq/campfire/internal/classifier"
	"github.com/campfirehq/campfire/internal/storage"
)

// Engine bundles the domain components behind one constructor so the API
// layer wires a single value
type Engine struct {
	Registry *Registry
	Content  *ContentStore
	Ledger   *Ledger
	Pipeline *Pipeline
	Feed     *FeedEngine
	Replies  *TreeBuilder
	Notifier *Notifier
}

// Options carries the tunables the engine needs from configuration
type Options struct {
	MaxUploadSize int64
	FeedPageSize  int
	FeedMaxSize   int
}

// New assembles the engine. cls may be nil when classification is
// disabled.
func New(database *gorm.DB, blobs storage.Store, cls classifier.Classifier, opts Options) *Engine {
	notifier := NewNotifier(database)
	registry := NewRegistry(database, notifier)
	pipeline := NewPipeline(database, registry, cls, notifier)

	return &Engine{
		Registry: registry,
		Content:  NewContentStore(database, registry, pipeline, blobs, opts.MaxUploadSize),
		Ledger:   NewLedger(database),
		Pipeline: pipeline,
		Feed:     NewFeedEngine(database, registry, opts.FeedPageSize, opts.FeedMaxSize),
		Replies:  NewTreeBuilder(database, registry, notifier),
		Notifier: notifier,
	}
}
