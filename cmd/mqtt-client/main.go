package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	mqtt "github.com/golang-io/mqttc"
	"github.com/golang-io/mqttc/packet"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	c := mqtt.New(
		mqtt.URL("mqtt://127.0.0.1:1883"),
		mqtt.Subscription(
			packet.Subscription{TopicFilter: "+"},
			packet.Subscription{TopicFilter: "a/b/c"},
		),
		mqtt.OnMessage(func(topic string, payload []byte, packetID uint16, _ *packet.PublishProperties) {
			log.Printf("on: topic=%s payload=%s id=%d", topic, payload, packetID)
		}),
	)

	if err := c.Connect(ctx); err != nil {
		log.Fatalf("connect: %v", err)
	}
	if _, err := c.Subscribe(packet.Subscription{TopicFilter: "+"}, packet.Subscription{TopicFilter: "a/b/c"}); err != nil {
		log.Fatalf("subscribe: %v", err)
	}

	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				payload := []byte(time.Now().Format("2006-01-02 15:04:05"))
				if err := c.Publish("12345", payload, 0, false); err != nil {
					log.Printf("publish: %v", err)
				}
			}
		}
	}()

	if err := c.Run(ctx); err != nil && err != context.Canceled {
		log.Fatalf("run: %v", err)
	}
}
