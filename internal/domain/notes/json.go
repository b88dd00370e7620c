package notes

import "encoding/json"

func jsonUnmarshal(raw []byte, out any) error {
	return json.Unmarshal(raw, out)
}

func MarshalVector(vec []float32) []byte {
	b, _ := json.Marshal(vec)
	return b
}
