package media

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"jewelry-catalog/internal/models"
)

// Outbox persiste los borrados externos pendientes
type Outbox interface {
	Enqueue(ctx context.Context, ref, provider string) (primitive.ObjectID, error)
	Complete(ctx context.Context, id primitive.ObjectID) error
	RecordFailure(ctx context.Context, id primitive.ObjectID, reason string) error
	Pending(ctx context.Context, provider string, maxAttempts int, limit int64) ([]models.MediaDeletion, error)
}

// MaxDeleteAttempts es el número de intentos tras el cual una entrada queda
// en el outbox como carta muerta y Replay deja de pedirla
const MaxDeleteAttempts = 10

// Janitor borra recursos externos en modo best-effort. Cada borrado se registra
// en el outbox antes de llamar al host y se retira al completarse, de modo que
// un fallo o una caída deja la entrada para Replay.
type Janitor struct {
	host   Host
	outbox Outbox
	batch  int64
}

func NewJanitor(host Host, outbox Outbox, batch int64) *Janitor {
	if batch <= 0 {
		batch = 50
	}
	return &Janitor{host: host, outbox: outbox, batch: batch}
}

// Discard borra las referencias indicadas; nunca devuelve error
func (j *Janitor) Discard(ctx context.Context, refs ...string) {
	if j.host == nil {
		return
	}
	for _, ref := range refs {
		if ref == "" {
			continue
		}

		id, err := j.outbox.Enqueue(ctx, ref, j.host.Name())
		if err != nil {
			log.Warn().Err(err).Str("ref", ref).Msg("could not record pending image deletion")
		}

		if err := j.host.Delete(ctx, ref); err != nil {
			log.Warn().Err(err).Str("ref", ref).Str("provider", j.host.Name()).Msg("failed to delete external image")
			if !id.IsZero() {
				if err := j.outbox.RecordFailure(ctx, id, err.Error()); err != nil {
					log.Warn().Err(err).Str("ref", ref).Msg("could not record image deletion failure")
				}
			}
			continue
		}

		if !id.IsZero() {
			if err := j.outbox.Complete(ctx, id); err != nil {
				log.Warn().Err(err).Str("ref", ref).Msg("could not complete image deletion entry")
			}
		}
	}
}

// Replay reintenta los borrados pendientes del proveedor actual.
// Devuelve cuántos se completaron.
func (j *Janitor) Replay(ctx context.Context) (int, error) {
	if j.host == nil {
		return 0, nil
	}

	entries, err := j.outbox.Pending(ctx, j.host.Name(), MaxDeleteAttempts, j.batch)
	if err != nil {
		return 0, err
	}

	done := 0
	for _, entry := range entries {
		if err := j.host.Delete(ctx, entry.Ref); err != nil {
			attempts := entry.Attempts + 1
			ev := log.Warn()
			if attempts >= MaxDeleteAttempts {
				ev = log.Error()
			}
			ev.Err(err).Str("ref", entry.Ref).Int("attempts", attempts).Bool("dead", attempts >= MaxDeleteAttempts).Msg("retry of image deletion failed")
			if err := j.outbox.RecordFailure(ctx, entry.ID, err.Error()); err != nil {
				log.Warn().Err(err).Str("ref", entry.Ref).Msg("could not record image deletion failure")
			}
			continue
		}
		if err := j.outbox.Complete(ctx, entry.ID); err != nil {
			log.Warn().Err(err).Str("ref", entry.Ref).Msg("could not complete image deletion entry")
			continue
		}
		done++
	}
	return done, nil
}

// Run ejecuta Replay al arrancar y luego cada interval hasta que ctx termine
func (j *Janitor) Run(ctx context.Context, interval time.Duration) {
	replay := func() {
		n, err := j.Replay(ctx)
		if err != nil {
			log.Error().Err(err).Msg("media outbox replay failed")
			return
		}
		if n > 0 {
			log.Info().Int("deleted", n).Msg("media outbox replayed")
		}
	}

	replay()
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			replay()
		}
	}
}
