package domain

import "encoding/json"

// Task — единица работы, выданная сервером задач.
//
// Task создаётся сервером и принадлежит воркеру только на время обработки.
// После получения Task не изменяется: обработчики читают Payload
// и строят производные значения (например, URL видео) отдельно.
type Task struct {
	// ID — идентификатор task на сервере.
	ID string `json:"id"`

	// Type — тег типа, по которому выбирается обработчик
	// ("url_common:get_music", "bilibili:get_music", "bilibili:search_music").
	Type string `json:"type"`

	// Payload — параметры обработчика. Проверяются при dispatch, не при получении.
	Payload map[string]string `json:"payload"`
}

// UnmarshalJSON декодирует task; отсутствующий payload превращается в пустую map.
func (t *Task) UnmarshalJSON(data []byte) error {
	type rawTask Task
	var raw rawTask
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Payload == nil {
		raw.Payload = make(map[string]string)
	}
	*t = Task(raw)
	return nil
}

// Result — результат выполнения task, отправляемый обратно на сервер.
//
// Инвариант: ID всегда равен ID исходной task, даже при ошибке.
// Result заполнен только при Success=true, Error — только при Success=false.
type Result struct {
	ID      string `json:"id"`
	Success bool   `json:"success"`
	Result  any    `json:"result,omitempty"`
	Error   string `json:"error,omitempty"`
}

// NewResult создаёт неуспешный Result для task.
// Любой путь, не дошедший до Succeed, даёт корректно сформированную ошибку.
func NewResult(taskID string) *Result {
	return &Result{ID: taskID}
}

// Succeed помечает результат успешным.
func (r *Result) Succeed(v any) {
	r.Success = true
	r.Result = v
	r.Error = ""
}

// Fail помечает результат неуспешным с сообщением об ошибке.
func (r *Result) Fail(msg string) {
	r.Success = false
	r.Result = nil
	r.Error = msg
}
