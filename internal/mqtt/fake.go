package mqtt

// FakeClient records publishes for test assertions.
type FakeClient struct {
	// Connected controls IsConnected.
	Connected bool

	// Published holds every successfully published payload, in order.
	Published [][]byte

	// PublishError, if set, is returned by Publish.
	PublishError error
}

var _ Client = (*FakeClient)(nil)

func NewFakeClient() *FakeClient {
	return &FakeClient{}
}

func (f *FakeClient) IsConnected() bool {
	return f.Connected
}

func (f *FakeClient) Publish(topic string, qos byte, retained bool, payload []byte) error {
	if f.PublishError != nil {
		return f.PublishError
	}
	f.Published = append(f.Published, payload)
	return nil
}
