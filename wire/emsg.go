package wire

import "fmt"

// EMsg identifies a Steam CM message type, grounded on the teacher's
// steamclient/emsg.go enum and extended with the unified-messaging and
// license values §6.1's wire table names.
type EMsg uint32

const (
	EMsgMulti                              EMsg = 1
	EMsgServiceMethod                      EMsg = 146
	EMsgServiceMethodResponse              EMsg = 147
	EMsgServiceMethodCallFromClient        EMsg = 151
	EMsgClientHeartBeat                    EMsg = 703
	EMsgClientLogOff                       EMsg = 706
	EMsgClientGamesPlayed                  EMsg = 742
	EMsgClientLogOnResponse                EMsg = 751
	EMsgClientLoggedOff                    EMsg = 757
	EMsgClientLicenseList                  EMsg = 780
	EMsgClientPICSProductInfoRequest        EMsg = 8167
	EMsgClientPICSProductInfoResponse       EMsg = 8168
	EMsgChannelEncryptRequest              EMsg = 1303
	EMsgChannelEncryptResponse             EMsg = 1304
	EMsgChannelEncryptResult               EMsg = 1305
	EMsgClientLogon                        EMsg = 5514
	EMsgClientUserNotifications            EMsg = 5599
	EMsgClientItemAnnouncements            EMsg = 5576
	EMsgServiceMethodCallFromClientNonAuthed EMsg = 9804
	EMsgClientHello                         EMsg = 9805
)

// ProtoMask flags the high bit of the wire type word when the packet body
// is protobuf-encoded (§4.1 "ProtoBuf: type u32 | 0x80000000").
const ProtoMask uint32 = 0x80000000

var emsgNames = map[EMsg]string{
	EMsgMulti:                              "Multi",
	EMsgServiceMethod:                      "ServiceMethod",
	EMsgServiceMethodResponse:              "ServiceMethodResponse",
	EMsgServiceMethodCallFromClient:        "ServiceMethodCallFromClient",
	EMsgClientHeartBeat:                    "ClientHeartBeat",
	EMsgClientLogOff:                       "ClientLogOff",
	EMsgClientGamesPlayed:                  "ClientGamesPlayed",
	EMsgClientLogOnResponse:                "ClientLogOnResponse",
	EMsgClientLoggedOff:                    "ClientLoggedOff",
	EMsgClientLicenseList:                  "ClientLicenseList",
	EMsgClientPICSProductInfoRequest:        "ClientPICSProductInfoRequest",
	EMsgClientPICSProductInfoResponse:       "ClientPICSProductInfoResponse",
	EMsgChannelEncryptRequest:              "ChannelEncryptRequest",
	EMsgChannelEncryptResponse:             "ChannelEncryptResponse",
	EMsgChannelEncryptResult:               "ChannelEncryptResult",
	EMsgClientLogon:                        "ClientLogon",
	EMsgClientUserNotifications:            "ClientUserNotifications",
	EMsgClientItemAnnouncements:            "ClientItemAnnouncements",
	EMsgServiceMethodCallFromClientNonAuthed: "ServiceMethodCallFromClientNonAuthed",
	EMsgClientHello:                         "ClientHello",
}

func (m EMsg) String() string {
	if name, ok := emsgNames[m]; ok {
		return name
	}
	return fmt.Sprintf("EMsg(%d)", uint32(m))
}

// IsProto reports whether m carries the protobuf flag.
func (m EMsg) IsProto() bool { return uint32(m)&ProtoMask != 0 }

// Masked strips the protobuf flag, yielding the bare message type.
func (m EMsg) Masked() EMsg { return EMsg(uint32(m) &^ ProtoMask) }
