package providers

import "context"

type memSession map[string]string

func (s memSession) Put(_ context.Context, key, value string) error {
	s[key] = value
	return nil
}

func (s memSession) Pull(_ context.Context, key string) (string, bool, error) {
	v, ok := s[key]
	delete(s, key)
	return v, ok, nil
}
