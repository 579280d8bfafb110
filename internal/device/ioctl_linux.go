//go:build linux

package device

// Linux ioctl request encoding: two direction bits, a 14-bit size, an
// 8-bit type and an 8-bit number.
const (
	iocNone  = 0
	iocWrite = 1
	iocRead  = 2
)

func ioc(dir, typ, nr, size uint) uint {
	return dir<<30 | size<<16 | typ<<8 | nr
}

// evdev requests.
var eviocGrab = ioc(iocWrite, 'E', 0x90, 4) // EVIOCGRAB, int arg by value

// uinput requests. uinputSetupSize is sizeof(struct uinput_setup):
// input_id (4 x u16) + 80-byte name + u32 ff_effects_max.
const uinputSetupSize = 8 + uinputMaxNameSize + 4

const uinputMaxNameSize = 80

var (
	uiDevCreate  = ioc(iocNone, 'U', 1, 0)
	uiDevDestroy = ioc(iocNone, 'U', 2, 0)
	uiDevSetup   = ioc(iocWrite, 'U', 3, uinputSetupSize)
	uiSetEvBit   = ioc(iocWrite, 'U', 100, 4)
	uiSetKeyBit  = ioc(iocWrite, 'U', 101, 4)
	uiSetRelBit  = ioc(iocWrite, 'U', 102, 4)
)
