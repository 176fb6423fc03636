// Package taskclient реализует HTTP-клиент к серверу задач.
//
// Client одновременно является источником task (long-poll GET /tasks/poll)
// и каналом результатов (POST /tasks/result). Повторов внутри клиента нет:
// паузы между попытками задаёт цикл воркера.
//
//	c, err := taskclient.New(taskclient.Config{
//	    ServerURL:   "https://tasks.example.com",
//	    Token:       token,
//	    PollTimeout: 30 * time.Second,
//	})
//
//	task, err := c.Poll(ctx) // nil, nil — task нет
//
// Каждый запрос несёт заголовок Music-Let-Version и, если задан токен,
// Authorization: Bearer.
package taskclient
