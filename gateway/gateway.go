package gateway

import (
	"context"
	"errors"

	"bitbucket.org/mmdatafocus/whisky_backend/config"
	"bitbucket.org/mmdatafocus/whisky_backend/models"
	"bitbucket.org/mmdatafocus/whisky_backend/utils"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type Reachability int

const (
	Unreachable Reachability = iota
	Reachable
)

func (r Reachability) String() string {
	if r == Reachable {
		return "reachable"
	}
	return "unreachable"
}

type Options struct {
	DefaultPageSize int
	MaxPageSize     int
	ExportMaxRows   int
}

// operation names a gateway call and the message reported when it is served from the fallback store.
type operation struct {
	name            string
	fallbackMessage string
}

var (
	opList   = operation{"List", "Failed to fetch from database"}
	opCreate = operation{"Create", "Failed to save to database"}
	opUpdate = operation{"Update", "Failed to update in database"}
	opDelete = operation{"Delete", "Failed to delete from database"}
	opExport = operation{"Export", "Failed to fetch from database"}
	opImage  = operation{"Image", "Failed to fetch from database"}
)

// Gateway routes each request to the primary store when it answers a probe,
// and to the fallback store otherwise or when the primary fails mid-request.
type Gateway struct {
	primary  models.WhiskyStore
	fallback models.WhiskyStore
	opts     Options
	logger   *logrus.Logger
	tracer   trace.Tracer
}

func New(primary, fallback models.WhiskyStore, opts Options, logger *logrus.Logger) *Gateway {
	if opts.DefaultPageSize <= 0 {
		opts.DefaultPageSize = config.DefaultPageSize
	}
	if opts.MaxPageSize <= 0 {
		opts.MaxPageSize = config.DefaultMaxPageSize
	}
	if opts.DefaultPageSize > opts.MaxPageSize {
		opts.DefaultPageSize = opts.MaxPageSize
	}
	if opts.ExportMaxRows <= 0 {
		opts.ExportMaxRows = config.DefaultExportMaxRows
	}
	if logger == nil {
		logger = config.GetLogger()
	}
	return &Gateway{
		primary:  primary,
		fallback: fallback,
		opts:     opts,
		logger:   logger,
		tracer:   otel.Tracer("whisky-gateway"),
	}
}

// Probe asks the primary store for a trivial round trip. Nothing is remembered between calls.
func (g *Gateway) Probe(ctx context.Context) Reachability {
	if g.primary == nil {
		return Unreachable
	}
	if err := g.primary.Ping(ctx); err != nil {
		g.logger.WithFields(logrus.Fields{
			"field":          "gateway",
			"correlation_id": correlationId(ctx),
		}).Warn("primary store unreachable: " + err.Error())
		return Unreachable
	}
	return Reachable
}

// route records which store served a request.
type route struct {
	usingFallback bool
	message       string
}

func (r route) annotate(env *Envelope) *Envelope {
	env.UsingFallback = r.usingFallback
	env.Error = r.message
	return env
}

// run executes fn against the primary store when it is reachable and retries it once
// against the fallback store on any primary failure other than ErrWhiskyNotFound.
func run[T any](ctx context.Context, g *Gateway, op operation, fn func(context.Context, models.WhiskyStore) (T, error)) (T, route, error) {
	ctx, span := g.tracer.Start(ctx, "gateway."+op.name)
	defer span.End()

	reachability := g.Probe(ctx)
	span.SetAttributes(attribute.String("whisky.primary", reachability.String()))

	if reachability == Reachable {
		result, err := fn(ctx, g.primary)
		if err == nil || errors.Is(err, models.ErrWhiskyNotFound) {
			span.SetAttributes(attribute.Bool("whisky.using_fallback", false))
			return result, route{}, err
		}
		span.RecordError(err)
		config.LogError(g.logger, "gateway.go", op.name, "primary store", correlationId(ctx), err)
	}

	span.SetAttributes(attribute.Bool("whisky.using_fallback", true))
	result, err := fn(ctx, g.fallback)
	if err != nil && !errors.Is(err, models.ErrWhiskyNotFound) {
		span.SetStatus(codes.Error, err.Error())
		config.LogError(g.logger, "gateway.go", op.name, "fallback store", correlationId(ctx), err)
	}
	return result, route{usingFallback: true, message: op.fallbackMessage}, err
}

type page struct {
	whiskies []*models.Whisky
	total    int64
}

func (g *Gateway) List(ctx context.Context, q models.ListQuery) (*Envelope, error) {
	result, r, err := run(ctx, g, opList, func(ctx context.Context, store models.WhiskyStore) (page, error) {
		whiskies, total, err := store.List(ctx, q)
		return page{whiskies, total}, err
	})
	if err != nil {
		return nil, err
	}
	if result.whiskies == nil {
		result.whiskies = []*models.Whisky{}
	}
	pages := totalPages(result.total, q.PageSize)
	return r.annotate(&Envelope{
		Success:    true,
		Data:       result.whiskies,
		Total:      &result.total,
		Page:       q.Page,
		Limit:      q.PageSize,
		TotalPages: &pages,
	}), nil
}

func (g *Gateway) Create(ctx context.Context, fields models.WhiskyFields) (*Envelope, error) {
	whisky, r, err := run(ctx, g, opCreate, func(ctx context.Context, store models.WhiskyStore) (*models.Whisky, error) {
		return store.Insert(ctx, fields)
	})
	if err != nil {
		return nil, err
	}
	return r.annotate(&Envelope{Success: true, Data: whisky}), nil
}

func (g *Gateway) Update(ctx context.Context, id int, fields models.WhiskyFields) (*Envelope, error) {
	if id <= 0 {
		return nil, ErrIdRequired
	}
	whisky, r, err := run(ctx, g, opUpdate, func(ctx context.Context, store models.WhiskyStore) (*models.Whisky, error) {
		return store.Update(ctx, id, fields)
	})
	if err != nil {
		return nil, err
	}
	return r.annotate(&Envelope{Success: true, Data: whisky}), nil
}

func (g *Gateway) Delete(ctx context.Context, id int) (*Envelope, error) {
	if id <= 0 {
		return nil, ErrIdRequired
	}
	_, r, err := run(ctx, g, opDelete, func(ctx context.Context, store models.WhiskyStore) (bool, error) {
		deleted, err := store.Delete(ctx, id)
		if err == nil && !deleted {
			return false, models.ErrWhiskyNotFound
		}
		return deleted, err
	})
	if err != nil {
		return nil, err
	}
	return r.annotate(&Envelope{Success: true}), nil
}

// Image returns the stored image of a record, resized to width when width > 0.
func (g *Gateway) Image(ctx context.Context, id int, width int) (*Image, error) {
	if id <= 0 {
		return nil, ErrIdRequired
	}
	whisky, r, err := run(ctx, g, opImage, func(ctx context.Context, store models.WhiskyStore) (*models.Whisky, error) {
		return store.Get(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	data, contentType, err := models.Thumbnail(whisky.ImageData, width)
	if err != nil {
		return nil, err
	}
	return &Image{Data: data, ContentType: contentType, UsingFallback: r.usingFallback}, nil
}

type Image struct {
	Data          []byte
	ContentType   string
	UsingFallback bool
}

func correlationId(ctx context.Context) string {
	id, _ := utils.GetCorrelationIdFromContext(ctx)
	return id
}
