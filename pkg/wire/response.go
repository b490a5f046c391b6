package wire

import (
	"fmt"

	"github.com/coldwire/coldwire/pkg/wirecodec"
)

// ResponseDataKind tags which shape of successful response payload a
// Response carries.
type ResponseDataKind uint8

const (
	ResponseDataSuccess ResponseDataKind = iota
	ResponseDataChatroomStatus
)

// ResponseData is the payload of a successful Response.
type ResponseData struct {
	Kind ResponseDataKind

	// ResponseDataChatroomStatus
	Users []UserInfo
}

func (d ResponseData) Encode(w *wirecodec.Writer) {
	w.WriteUint8(uint8(d.Kind))
	switch d.Kind {
	case ResponseDataSuccess:
		// no payload
	case ResponseDataChatroomStatus:
		w.WriteUint64(uint64(len(d.Users)))
		for _, u := range d.Users {
			u.Encode(w)
		}
	}
}

func DecodeResponseData(r *wirecodec.Reader) (ResponseData, error) {
	tag, err := r.ReadUint8()
	if err != nil {
		return ResponseData{}, err
	}

	kind := ResponseDataKind(tag)
	switch kind {
	case ResponseDataSuccess:
		return ResponseData{Kind: kind}, nil
	case ResponseDataChatroomStatus:
		n, err := r.ReadUint64()
		if err != nil {
			return ResponseData{}, err
		}
		users := make([]UserInfo, 0, n)
		for i := uint64(0); i < n; i++ {
			u, err := DecodeUserInfo(r)
			if err != nil {
				return ResponseData{}, err
			}
			users = append(users, u)
		}
		return ResponseData{Kind: kind, Users: users}, nil
	default:
		return ResponseData{}, fmt.Errorf("%w: response data tag %d", ErrUnknownVariant, tag)
	}
}

// Response is the reply a server sends back for a Command, correlated by the
// RequestMux request id. It is either a successful ResponseData or an
// ErrorCode.
type Response struct {
	Ok   bool
	Data ResponseData
	Err  ErrorCode
}

func OkResponse(data ResponseData) Response {
	return Response{Ok: true, Data: data}
}

func ErrResponse(code ErrorCode) Response {
	return Response{Ok: false, Err: code}
}

func (resp Response) Encode(w *wirecodec.Writer) {
	w.WriteBool(resp.Ok)
	if resp.Ok {
		resp.Data.Encode(w)
	} else {
		w.WriteUint8(uint8(resp.Err))
	}
}

func DecodeResponse(r *wirecodec.Reader) (Response, error) {
	ok, err := r.ReadBool()
	if err != nil {
		return Response{}, err
	}
	if ok {
		data, err := DecodeResponseData(r)
		if err != nil {
			return Response{}, err
		}
		return OkResponse(data), nil
	}
	code, err := r.ReadUint8()
	if err != nil {
		return Response{}, err
	}
	return ErrResponse(ErrorCode(code)), nil
}
