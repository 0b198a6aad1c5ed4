// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Oleg Tarasov

package dimmer

import "hash/fnv"

// curveStateVersion is mixed into the store key so that a stored curve is
// invalidated whenever its layout changes.
const curveStateVersion uint32 = 0x362A4931

// CurveStore persists a calibration curve under a numeric key. Save must be
// durable by the time it returns; Load reports whether a value was present.
type CurveStore interface {
	Save(key uint32, value any) error
	Load(key uint32, out any) (bool, error)
}

// StoreKey derives the persistence key for a device's calibration curve.
// The key is the 32-bit FNV-1 hash of the device identifier, mixed with the
// curve layout version. Distinct devices sharing one store get distinct keys.
func StoreKey(deviceID string) uint32 {
	h := fnv.New32()
	h.Write([]byte(deviceID))
	return h.Sum32() ^ curveStateVersion
}
