package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/appetiteclub/till/pkg"
	"github.com/appetiteclub/till/pkg/event"
	"github.com/appetiteclub/till/pkg/platform"
)

const defaultEventLimit = 50

// Events replays the most recent ledger events kept in the JetStream stream.
// With follow set it keeps printing new events until ctx is done.
func Events(ctx context.Context, config *platform.Config, logger platform.Logger) error {
	conn, err := pkg.ConnectNATS(config.GetStringOrDef("nats.url", nats.DefaultURL), "till-utils", logger)
	if err != nil {
		return err
	}
	defer conn.Close()

	stream, err := pkg.NewNATSStream(ctx, conn, pkg.NATSStreamConfig{Topic: event.LedgerTopic}, logger)
	if err != nil {
		return err
	}

	if err := printEvents(ctx, os.Stdout, stream, config.GetIntOrDef("limit", defaultEventLimit)); err != nil {
		return err
	}
	if !config.GetBool("follow") {
		return nil
	}
	return followEvents(ctx, os.Stdout, stream)
}

func printEvents(ctx context.Context, w io.Writer, consumer platform.StreamConsumer, limit int) error {
	msgs, err := consumer.Fetch(ctx, limit)
	if err != nil {
		return fmt.Errorf("fetch events: %w", err)
	}

	if len(msgs) == 0 {
		fmt.Fprintln(w, "No events stored")
		return nil
	}

	for _, m := range msgs {
		fmt.Fprintf(w, "%6d  ", m.Sequence)
		writeEvent(w, m.Data)
	}
	return nil
}

func followEvents(ctx context.Context, w io.Writer, sub platform.Subscriber) error {
	err := sub.Subscribe(ctx, event.LedgerTopic, func(_ context.Context, data []byte) error {
		fmt.Fprint(w, "   new  ")
		writeEvent(w, data)
		return nil
	})
	if err != nil {
		return fmt.Errorf("follow events: %w", err)
	}
	<-ctx.Done()
	return nil
}

func writeEvent(w io.Writer, data []byte) {
	var meta event.Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		fmt.Fprintf(w, "unreadable: %v\n", err)
		return
	}
	fmt.Fprintf(w, "%s  %-24s %s\n", meta.OccurredAt.UTC().Format(time.RFC3339), meta.EventType, meta.Date)
}
