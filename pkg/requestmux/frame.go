package requestmux

import "github.com/coldwire/coldwire/pkg/wirecodec"

// encodeFrame builds the id||body framing RequestMux layers on top of every
// SecureChannel plaintext payload. id == 0 marks a fire-and-forget
// notification (no reply expected, no pending slot installed).
func encodeFrame(id uint16, body []byte) []byte {
	w := wirecodec.NewWriter()
	w.WriteUint16(id)
	w.WriteFixed(body)
	return w.Bytes()
}

// decodeFrame splits a plaintext payload back into its id and body.
func decodeFrame(data []byte) (id uint16, body []byte, err error) {
	r := wirecodec.NewReader(data)
	id, err = r.ReadUint16()
	if err != nil {
		return 0, nil, err
	}
	body, err = r.ReadFixed(r.Remaining())
	if err != nil {
		return 0, nil, err
	}
	return id, body, nil
}
