package main

import (
	"context"
	"encoding/json"
	"log"

	"github.com/MikuAddict/flea-market-sub000/internal/config"
	"github.com/MikuAddict/flea-market-sub000/internal/infra/mq"
	"github.com/MikuAddict/flea-market-sub000/internal/logging"
	"github.com/MikuAddict/flea-market-sub000/internal/repository/mysql"
	"github.com/MikuAddict/flea-market-sub000/internal/service"
)

// trade-worker 消费结算事件，给买卖双方写站内通知
func main() {
	cfg := config.Load()
	logging.Init(cfg.Debug)

	db := mysql.Init(&cfg.MySQL)
	mqConn := mq.Init(&cfg.RabbitMQ)

	messageRepo := mysql.NewMessageRepository(db)
	messageSvc := service.NewMessageService(messageRepo)

	ch, err := mqConn.Channel()
	if err != nil {
		log.Fatalf("failed to open channel: %v", err)
	}
	defer ch.Close()

	if _, err = ch.QueueDeclare(service.TradeEventsQueue, true, false, false, false, nil); err != nil {
		log.Fatalf("failed to declare queue: %v", err)
	}

	// 手动确认模式，处理失败的消息重回队列
	msgs, err := ch.Consume(service.TradeEventsQueue, "", false, false, false, false, nil)
	if err != nil {
		log.Fatalf("failed to consume: %v", err)
	}

	log.Printf("trade-worker started, waiting for settlement events")
	ctx := context.Background()
	for d := range msgs {
		var ev service.TradeSettledMessage
		if err := json.Unmarshal(d.Body, &ev); err != nil {
			log.Printf("drop malformed event: %v", err)
			service.GetMonitor().RecordWorkerFailed()
			_ = d.Nack(false, false)
			continue
		}

		if err := messageSvc.NotifyTradeSettled(ctx, &ev); err != nil {
			log.Printf("notify trade settled failed, requeue: order=%d err=%v", ev.OrderID, err)
			service.GetMonitor().RecordWorkerFailed()
			_ = d.Nack(false, true)
			continue
		}

		service.GetMonitor().RecordWorkerProcessed()
		_ = d.Ack(false)
	}
}
