package llm

import "context"

// mockPlanResponse is the canned week the mock backend answers with.
const mockPlanResponse = `[
  {
    "day": "周一",
    "start": "09:00",
    "end": "10:00",
    "title": "回顾现有日程",
    "notes": "mock 响应用于本地调试"
  },
  {
    "day": "周三",
    "start": "15:00",
    "end": "16:00",
    "title": "处理用户新增需求"
  },
  {
    "day": "周五",
    "start": "17:00",
    "end": "18:00",
    "title": "整理一周总结"
  }
]`

// MockClient answers every request with a fixed text. It backs offline runs
// and tests.
type MockClient struct {
	Text     string
	observer Observer
}

// NewMockClient returns a client answering with the built-in three-item week.
func NewMockClient(observer Observer) *MockClient {
	if observer == nil {
		observer = NoopObserver{}
	}
	return &MockClient{Text: mockPlanResponse, observer: observer}
}

func (m *MockClient) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.observer.OnCallComplete(LLMCallEvent{
		Task:     req.Task,
		Provider: ProviderMock,
		Model:    "mock",
		Attempts: 1,
		Success:  true,
	})
	return &GenerateResponse{Text: m.Text, Model: "mock"}, nil
}

func (m *MockClient) Available(context.Context) bool { return true }
