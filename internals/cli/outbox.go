package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"techfest_backend/internals/features/registrations/repository"
	regSvc "techfest_backend/internals/features/registrations/service"
	"techfest_backend/internals/outbox"
)

var outboxCmd = &cobra.Command{
	Use:   "outbox",
	Short: "Inspect and replay queued registration saves",
}

var outboxRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Replay every queued registration once",
	RunE:  runOutbox,
}

func init() {
	outboxCmd.AddCommand(outboxRunCmd)
}

func runOutbox(cmd *cobra.Command, args []string) error {
	b, err := connect(true)
	if err != nil {
		return err
	}
	defer b.Close()

	var q outbox.Queue
	switch b.Config.Outbox.Backend {
	case "rabbitmq", "amqp":
		rq, err := outbox.NewRabbitQueue(b.Config.Outbox.RabbitURL, b.Config.Outbox.Queue)
		if err != nil {
			return err
		}
		q = rq
	default:
		if b.Redis == nil {
			return errors.New("redis outbox needs REDIS_ADDR")
		}
		q = outbox.NewRedisQueue(b.Redis, b.Config.Outbox.Queue)
	}
	defer q.Close()

	return replay(cmd, b, q)
}

func replay(cmd *cobra.Command, b *Backends, q outbox.Queue) error {
	svc := regSvc.New(repository.New(b.DB), b.Catalog, nil, q)
	w := outbox.NewWorker(q, b.Config.Outbox.MaxAttempts)
	w.Handle(outbox.KindRegistration, svc.ReplayHandler())

	st, err := w.RunOnce(cmd.Context())
	if err != nil {
		return err
	}
	left, err := q.Len(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Processed %d, re-queued %d, dead-lettered %d, %d still queued.\n", st.Processed, st.Retried, st.Dead, left)
	return nil
}
