package signal

// Connect connects sig to slot. Nil endpoints return the zero ConnID.
func Connect(sig *Signal, slot *Slot, mode Mode) ConnID {
	return sig.Connect(slot, mode)
}

// ConnectSignal forwards sig to target.
func ConnectSignal(sig, target *Signal, mode Mode) ConnID {
	return sig.ConnectSignal(target, mode)
}

// Disconnect severs the first connection from sig to slot.
func Disconnect(sig *Signal, slot *Slot) bool {
	return sig.Disconnect(slot)
}

// DisconnectSignal severs the first connection from sig to target.
func DisconnectSignal(sig, target *Signal) bool {
	return sig.DisconnectSignal(target)
}

// DisconnectAll severs every connection referencing sig.
func DisconnectAll(sig *Signal) {
	sig.DisconnectAll()
}

// DisconnectAllSlot severs every connection to slot.
func DisconnectAllSlot(slot *Slot) {
	slot.DisconnectAll()
}
