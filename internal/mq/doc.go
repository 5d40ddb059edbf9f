// Package mq публикует события редактора в RabbitMQ.
//
// Структура:
//   - connection.go — соединение с RabbitMQ (reconnect, graceful shutdown)
//   - topology.go   — обменник taskflow.events и очередь для tasks.committed
//   - publisher.go  — публикация событий
//
// Типы сообщений:
//   - tasks.committed — список задач workflow успешно создан в backend
//
// Брокер необязателен: без AMQP URL редактор работает без публикации.
package mq
