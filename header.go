package dnp3

// C5: the 2-byte application-layer header (control byte + function code)
// plus, for responses, the trailing 2-byte IIN field. Grounded on
// opendnp3's AppControlField.cpp and IINField.h (see
// _examples/original_source/cpp/opendnp3/src/opendnp3/).

// AppControlField is the control byte: FIR/FIN/CON/UNS flags plus a 4-bit
// sequence number, mirroring AppControlField.cpp's bit layout exactly.
type AppControlField struct {
	FIR bool
	FIN bool
	CON bool
	UNS bool
	SEQ uint8 // 0-15
}

const (
	firMask byte = 0x80
	finMask byte = 0x40
	conMask byte = 0x20
	unsMask byte = 0x10
	seqMask byte = 0x0F
)

// ParseAppControlField decodes a control byte.
func ParseAppControlField(b byte) AppControlField {
	return AppControlField{
		FIR: b&firMask != 0,
		FIN: b&finMask != 0,
		CON: b&conMask != 0,
		UNS: b&unsMask != 0,
		SEQ: b & seqMask,
	}
}

// Byte re-serializes the control field, matching
// AppControlField::ToByte (SEQ is taken mod 16).
func (a AppControlField) Byte() byte {
	var b byte
	if a.FIR {
		b |= firMask
	}
	if a.FIN {
		b |= finMask
	}
	if a.CON {
		b |= conMask
	}
	if a.UNS {
		b |= unsMask
	}
	b |= a.SEQ % 16
	return b
}

// Function is the application-layer function code (spec.md §3/§6),
// completed from opendnp3's APDUHeader.h enumeration.
type Function byte

const (
	FuncConfirm               Function = 0x00
	FuncRead                  Function = 0x01
	FuncWrite                 Function = 0x02
	FuncSelect                Function = 0x03
	FuncOperate               Function = 0x04
	FuncDirectOperate         Function = 0x05
	FuncDirectOperateNoAck    Function = 0x06
	FuncImmedFreeze           Function = 0x07
	FuncImmedFreezeNoAck      Function = 0x08
	FuncFreezeClear           Function = 0x09
	FuncFreezeClearNoAck      Function = 0x0A
	FuncFreezeAtTime          Function = 0x0B
	FuncFreezeAtTimeNoAck     Function = 0x0C
	FuncColdRestart           Function = 0x0D
	FuncWarmRestart           Function = 0x0E
	FuncInitializeData        Function = 0x0F
	FuncInitializeApplication Function = 0x10
	FuncStartApplication      Function = 0x11
	FuncStopApplication       Function = 0x12
	FuncSaveConfig            Function = 0x13
	FuncEnableUnsolicited     Function = 0x14
	FuncDisableUnsolicited    Function = 0x15
	FuncAssignClass           Function = 0x16
	FuncDelayMeasure          Function = 0x17
	FuncRecordCurrentTime     Function = 0x18
	FuncOpenFile              Function = 0x19
	FuncCloseFile             Function = 0x1A
	FuncDeleteFile            Function = 0x1B
	FuncGetFileInfo           Function = 0x1C
	FuncAuthenticateFile      Function = 0x1D
	FuncAbortFile             Function = 0x1E
	FuncActivateConfig        Function = 0x1F
	FuncAuthRequest           Function = 0x20
	FuncAuthRequestNoAck      Function = 0x21
	FuncResponse              Function = 0x81
	FuncUnsolicitedResponse   Function = 0x82
	FuncAuthResponse          Function = 0x83
	FuncUnknown               Function = 0xFF
)

var functionNames = map[Function]string{
	FuncConfirm: "CONFIRM", FuncRead: "READ", FuncWrite: "WRITE",
	FuncSelect: "SELECT", FuncOperate: "OPERATE", FuncDirectOperate: "DIRECT_OPERATE",
	FuncDirectOperateNoAck: "DIRECT_OPERATE_NR", FuncImmedFreeze: "IMMED_FREEZE",
	FuncImmedFreezeNoAck: "IMMED_FREEZE_NR", FuncFreezeClear: "FREEZE_CLEAR",
	FuncFreezeClearNoAck: "FREEZE_CLEAR_NR", FuncFreezeAtTime: "FREEZE_AT_TIME",
	FuncFreezeAtTimeNoAck: "FREEZE_AT_TIME_NR", FuncColdRestart: "COLD_RESTART",
	FuncWarmRestart: "WARM_RESTART", FuncInitializeData: "INITIALIZE_DATA",
	FuncInitializeApplication: "INITIALIZE_APPLICATION", FuncStartApplication: "START_APPLICATION",
	FuncStopApplication: "STOP_APPLICATION", FuncSaveConfig: "SAVE_CONFIG",
	FuncEnableUnsolicited: "ENABLE_UNSOLICITED", FuncDisableUnsolicited: "DISABLE_UNSOLICITED",
	FuncAssignClass: "ASSIGN_CLASS", FuncDelayMeasure: "DELAY_MEASURE",
	FuncRecordCurrentTime: "RECORD_CURRENT_TIME", FuncOpenFile: "OPEN_FILE",
	FuncCloseFile: "CLOSE_FILE", FuncDeleteFile: "DELETE_FILE", FuncGetFileInfo: "GET_FILE_INFO",
	FuncAuthenticateFile: "AUTHENTICATE_FILE", FuncAbortFile: "ABORT_FILE",
	FuncActivateConfig: "ACTIVATE_CONFIG", FuncAuthRequest: "AUTH_REQUEST",
	FuncAuthRequestNoAck: "AUTH_REQUEST_NO_ACK", FuncResponse: "RESPONSE",
	FuncUnsolicitedResponse: "UNSOLICITED_RESPONSE", FuncAuthResponse: "AUTH_RESPONSE",
}

func (f Function) String() string {
	if name, ok := functionNames[f]; ok {
		return name
	}
	return "UNKNOWN"
}

// ParseFunction decodes a function code byte, returning FuncUnknown (not an
// error) for anything outside the closed enum, per spec.md §3.
func ParseFunction(b byte) Function {
	f := Function(b)
	if _, ok := functionNames[f]; ok {
		return f
	}
	return FuncUnknown
}

// IIN is the 16-bit Internal Indications field carried on responses,
// modeled as two independent bytes matching opendnp3's IINField.h layout.
type IIN struct {
	LSB byte
	MSB byte
}

// LSB bits.
const (
	IINAllStations    byte = 0x01
	IINClass1Events   byte = 0x02
	IINClass2Events   byte = 0x04
	IINClass3Events   byte = 0x08
	IINNeedTime       byte = 0x10
	IINLocalControl   byte = 0x20
	IINDeviceTrouble  byte = 0x40
	IINDeviceRestart  byte = 0x80
)

// MSB bits.
const (
	IINFuncNotSupported   byte = 0x01
	IINObjectUnknown      byte = 0x02
	IINParamError         byte = 0x04
	IINEventBufferOverflow byte = 0x08
	IINAlreadyExecuting   byte = 0x10
	IINConfigCorrupt      byte = 0x20
	IINReserved1          byte = 0x40
	IINReserved2          byte = 0x80
)

func (i IIN) Bytes() []byte { return []byte{i.LSB, i.MSB} }

func ParseIIN(lsb, msb byte) IIN { return IIN{LSB: lsb, MSB: msb} }

func (i *IIN) SetLSB(bit byte) { i.LSB |= bit }
func (i *IIN) SetMSB(bit byte) { i.MSB |= bit }
func (i *IIN) ClearLSB(bit byte) { i.LSB &^= bit }
func (i *IIN) ClearMSB(bit byte) { i.MSB &^= bit }
func (i IIN) IsSetLSB(bit byte) bool { return i.LSB&bit != 0 }
func (i IIN) IsSetMSB(bit byte) bool { return i.MSB&bit != 0 }

// Or merges another IIN's set bits into a copy of i.
func (i IIN) Or(o IIN) IIN {
	return IIN{LSB: i.LSB | o.LSB, MSB: i.MSB | o.MSB}
}

// Header is the decoded 2-byte (request) or 4-byte (response) application
// header (spec.md §3).
type Header struct {
	Control  AppControlField
	Function Function
	IIN      IIN
	HasIIN   bool
}

// ParseHeader decodes the application header from the front of an APDU
// fragment. Responses (RESPONSE/UNSOLICITED_RESPONSE/AUTH_RESPONSE) carry
// a trailing IIN; requests do not.
func ParseHeader(buf *Buffer) (Header, error) {
	raw, ok := buf.Take(2)
	if !ok {
		return Header{}, ErrNotEnoughDataForHeader
	}
	h := Header{
		Control:  ParseAppControlField(raw[0]),
		Function: ParseFunction(raw[1]),
	}
	if h.Function == FuncResponse || h.Function == FuncUnsolicitedResponse || h.Function == FuncAuthResponse {
		iin, ok := buf.Take(2)
		if !ok {
			return Header{}, ErrNotEnoughDataForHeader
		}
		h.IIN = ParseIIN(iin[0], iin[1])
		h.HasIIN = true
	}
	return h, nil
}
