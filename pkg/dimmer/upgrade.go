// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Oleg Tarasov

package dimmer

// FirmwareUpgrader reflashes the co-processor with a new firmware image.
// The upgrade protocol (STM32 bootloader entry, even parity, block writes)
// lives behind this interface; the device only decides when an upgrade is
// needed and retries setup afterwards.
type FirmwareUpgrader interface {
	Upgrade(image []byte) error
}
