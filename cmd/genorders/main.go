package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"time"

	ck "github.com/confluentinc/confluent-kafka-go/v2/kafka"

	"ecomflow/internal/extract"
	"ecomflow/internal/model"
	"ecomflow/internal/storage"
)

func main() {
	var (
		backend   string
		root      string
		start     string
		days      int
		perDay    int
		customers int
		products  int
		dirty     float64
		seed      int64
		bootstrap string
		topic     string
	)
	flag.StringVar(&backend, "backend", "fs", "storage backend: fs|pebble|badger")
	flag.StringVar(&root, "root", "data", "data root directory")
	flag.StringVar(&start, "start", time.Now().UTC().Format(model.DateLayout), "first date YYYY-MM-DD")
	flag.IntVar(&days, "days", 7, "number of days to generate")
	flag.IntVar(&perDay, "orders", 50, "orders per day")
	flag.IntVar(&customers, "customers", 40, "customer pool size")
	flag.IntVar(&products, "products", 12, "product catalog size")
	flag.Float64Var(&dirty, "dirty", 0.05, "share of duplicated or malformed rows")
	flag.Int64Var(&seed, "seed", 1, "random seed")
	flag.StringVar(&bootstrap, "bootstrap", "", "publish orders as JSON to this kafka bootstrap instead of landing them")
	flag.StringVar(&topic, "topic", "ecom.orders.raw", "raw orders topic")
	flag.Parse()

	first, err := model.ParseDay(start)
	if err != nil {
		log.Fatalf("start: %v", err)
	}
	g := newGenerator(rand.New(rand.NewSource(seed)), customers, products, dirty)

	if bootstrap != "" {
		if err := publish(g, bootstrap, topic, first, days, perDay); err != nil {
			log.Fatalf("publish failed: %v", err)
		}
		return
	}

	st, err := storage.Open(storage.Options{Backend: backend, Root: root})
	if err != nil {
		log.Fatalf("open store: %v", err)
	}
	defer st.Close()
	ex := extract.NewExtractor(st, nil)
	ctx := context.Background()
	for i := 0; i < days; i++ {
		day := first.AddDate(0, 0, i)
		for rt, t := range g.day(day, perDay) {
			if err := ex.Land(ctx, rt, day, t); err != nil {
				log.Fatalf("land %s %s: %v", rt, day.Format(model.DateLayout), err)
			}
		}
	}
	log.Printf("generated %d days from %s under %s (%s)", days, start, root, backend)
}

func publish(g *generator, bootstrap, topic string, first time.Time, days, perDay int) error {
	p, err := ck.NewProducer(&ck.ConfigMap{
		"bootstrap.servers":  bootstrap,
		"enable.idempotence": true,
		"acks":               "all",
	})
	if err != nil {
		return fmt.Errorf("producer: %w", err)
	}
	defer p.Close()

	n := 0
	for i := 0; i < days; i++ {
		day := first.AddDate(0, 0, i)
		orders := g.day(day, perDay)[model.Orders]
		for r := range orders.Rows {
			rec := make(map[string]string, len(orders.Header))
			for _, col := range orders.Header {
				rec[col] = orders.Value(r, col)
			}
			val, err := json.Marshal(rec)
			if err != nil {
				return fmt.Errorf("marshal: %w", err)
			}
			msg := &ck.Message{TopicPartition: ck.TopicPartition{Topic: &topic, Partition: ck.PartitionAny}, Key: []byte(rec["order_id"]), Value: val}
			if err := p.Produce(msg, nil); err != nil {
				return fmt.Errorf("produce: %w", err)
			}
			n++
		}
	}
	if left := p.Flush(15000); left > 0 {
		return fmt.Errorf("%d messages not delivered", left)
	}
	log.Printf("published %d orders to %s", n, topic)
	return nil
}
