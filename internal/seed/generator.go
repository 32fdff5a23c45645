//-------------------------------------------------------------------------
//
// pgEdge Movements Report
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package seed

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/pgEdge/pgedge-movements/internal/datagen"
	"github.com/pgEdge/pgedge-movements/internal/db"
	"github.com/pgEdge/pgedge-movements/internal/logging"
	"github.com/pgEdge/pgedge-movements/internal/movement"
)

// city is a state code and its capital.
type city struct {
	code string
	name string
}

var cities = []city{
	{"SP", "São Paulo"},
	{"RJ", "Rio de Janeiro"},
	{"MG", "Belo Horizonte"},
	{"BA", "Salvador"},
	{"PR", "Curitiba"},
	{"RS", "Porto Alegre"},
	{"SC", "Florianópolis"},
	{"PE", "Recife"},
	{"CE", "Fortaleza"},
	{"GO", "Goiânia"},
	{"DF", "Brasília"},
	{"AM", "Manaus"},
}

// routeProfile sets how busy a route is and how often it runs late.
type routeProfile struct {
	origin      city
	destination city
	volume      int
	delayWeight int
}

func (r routeProfile) name() string {
	return r.origin.code + "-" + r.destination.code
}

// Row is one generated movement, ready for COPY. Nil fields become NULL.
type Row struct {
	Date         *time.Time
	Route        *string
	Origin       *string
	Destination  *string
	ProductID    *string
	Quantity     *float64
	FreightValue *float64
	Status       *string
	DelayDays    *int
}

func (r Row) values() []any {
	return []any{
		r.Date, r.Route, r.Origin, r.Destination, r.ProductID,
		r.Quantity, r.FreightValue, r.Status, r.DelayDays,
	}
}

// copyColumns are the inserted columns; id is generated by the database.
var copyColumns = movement.Columns[1:]

// Options controls generation.
type Options struct {
	Rows            int
	Days            int
	InvalidFraction float64
	Seed            uint64

	// Now anchors the date range; defaults to time.Now.
	Now func() time.Time
}

// Generator produces synthetic movements.
type Generator struct {
	faker  *datagen.Faker
	cfg    datagen.BatchInsertConfig
	opts   Options
	routes []routeProfile
}

// NewGenerator creates a generator. A zero seed draws a random one.
func NewGenerator(opts Options) *Generator {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	faker := datagen.NewFaker()
	if opts.Seed != 0 {
		faker = datagen.NewFakerWithSeed(opts.Seed)
	}
	g := &Generator{
		faker: faker,
		cfg:   datagen.DefaultBatchConfig(),
		opts:  opts,
	}
	g.routes = g.pickRoutes(14)
	return g
}

// pickRoutes draws n distinct origin/destination pairs.
func (g *Generator) pickRoutes(n int) []routeProfile {
	seen := make(map[string]bool)
	var routes []routeProfile
	for len(routes) < n {
		o := datagen.Choose(g.faker, cities)
		d := datagen.Choose(g.faker, cities)
		if o.code == d.code {
			continue
		}
		r := routeProfile{
			origin:      o,
			destination: d,
			volume:      g.faker.Int(1, 10),
			delayWeight: g.faker.Int(3, 40),
		}
		if seen[r.name()] {
			continue
		}
		seen[r.name()] = true
		routes = append(routes, r)
	}
	return routes
}

// Generate returns opts.Rows synthetic movements.
func (g *Generator) Generate() []Row {
	end := g.opts.Now().UTC()
	start := end.AddDate(0, 0, -g.opts.Days)

	weights := make([]int, len(g.routes))
	for i, r := range g.routes {
		weights[i] = r.volume
	}

	rows := make([]Row, 0, g.opts.Rows)
	for i := 0; i < g.opts.Rows; i++ {
		route := datagen.ChooseWeighted(g.faker, g.routes, weights)
		row := g.movement(route, start, end)
		if g.faker.Chance(g.opts.InvalidFraction) {
			g.corrupt(&row)
		}
		rows = append(rows, row)
	}
	return rows
}

func (g *Generator) movement(route routeProfile, start, end time.Time) Row {
	date := g.faker.Day(start, end)
	name := route.name()
	product := fmt.Sprintf("PRD-%s", g.faker.Digits(4))
	qty := float64(g.faker.Int(1, 500))
	freight := g.faker.Money(150, 8000)

	statuses := []movement.Status{
		movement.StatusDelivered,
		movement.StatusInTransit,
		movement.StatusDelayed,
		movement.StatusCancelled,
	}
	status := datagen.ChooseWeighted(g.faker, statuses, []int{60, 20, route.delayWeight, 5})
	label := status.Label()

	delay := 0
	if status == movement.StatusDelayed {
		delay = g.faker.Int(1, 15)
	}

	return Row{
		Date:         &date,
		Route:        &name,
		Origin:       &route.origin.name,
		Destination:  &route.destination.name,
		ProductID:    &product,
		Quantity:     &qty,
		FreightValue: &freight,
		Status:       &label,
		DelayDays:    &delay,
	}
}

// corrupt damages one field the way a careless upstream system would.
func (g *Generator) corrupt(r *Row) {
	switch g.faker.Int(0, 4) {
	case 0:
		r.Date = nil
	case 1:
		unknown := "Extraviado"
		r.Status = &unknown
	case 2:
		negative := -g.faker.Int(1, 5)
		r.DelayDays = &negative
	case 3:
		r.Route = nil
	default:
		r.FreightValue = nil
	}
}

// Insert copies rows into the movements table in batches.
func (g *Generator) Insert(ctx context.Context, q db.Querier, rows []Row) (int64, error) {
	progress := datagen.NewProgressReporter(movement.Table, int64(len(rows)), g.cfg.ProgressInterval)

	for start := 0; start < len(rows); start += g.cfg.BatchSize {
		end := min(start+g.cfg.BatchSize, len(rows))
		batch := rows[start:end]

		n, err := q.CopyFrom(ctx,
			pgx.Identifier{movement.Table},
			copyColumns,
			pgx.CopyFromSlice(len(batch), func(i int) ([]any, error) {
				return batch[i].values(), nil
			}),
		)
		if err != nil {
			return progress.Rows(), fmt.Errorf("failed to copy movements: %w", err)
		}
		progress.Update(n)
	}

	progress.Done()
	return progress.Rows(), nil
}

// Run creates the schema, optionally clearing existing data, and seeds it.
func Run(ctx context.Context, q db.Querier, opts Options, dropExisting bool) (int64, error) {
	if dropExisting {
		logging.Info().Msg("Dropping existing schema")
		if err := DropSchema(ctx, q); err != nil {
			return 0, err
		}
		if err := db.DropMetadata(ctx, q); err != nil {
			logging.Debug().Err(err).Msg("No metadata table to drop")
		}
	}

	logging.Info().Msg("Creating schema")
	if err := CreateSchema(ctx, q); err != nil {
		return 0, err
	}

	gen := NewGenerator(opts)
	logging.Info().
		Int("rows", opts.Rows).
		Int("days", opts.Days).
		Int("routes", len(gen.routes)).
		Float64("invalid_fraction", opts.InvalidFraction).
		Msg("Generating movements")

	n, err := gen.Insert(ctx, q, gen.Generate())
	if err != nil {
		return n, err
	}

	if err := db.SaveSeedMetadata(ctx, q, int(n), gen.opts.Now()); err != nil {
		return n, err
	}
	return n, nil
}
