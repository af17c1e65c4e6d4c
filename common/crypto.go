// Copyright 2023-2025
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package common

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"io"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// Encrypt seals data with AES-GCM using the configured secret key
func Encrypt(data []byte) ([]byte, error) {
	key, err := hex.DecodeString(viper.GetString("secret_key"))
	if err != nil {
		log.Error().Stack().Err(err).Msg("could not unhexlify QP_SECRET")
		return nil, err
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		log.Error().Stack().Err(err).Msg("could not create cipher")
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return gcm.Seal(nonce, nonce, data, nil), nil
}

// Decrypt opens data sealed by Encrypt
func Decrypt(data []byte) ([]byte, error) {
	key, err := hex.DecodeString(viper.GetString("secret_key"))
	if err != nil {
		log.Error().Stack().Err(err).Msg("could not unhexlify QP_SECRET")
		return nil, err
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		log.Error().Stack().Err(err).Msg("could not create cipher")
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		log.Warn().Stack().Err(err).Msg("could not unencrypt data")
		return nil, err
	}
	nonceSize := gcm.NonceSize()
	if len(data) < nonceSize {
		return nil, io.ErrUnexpectedEOF
	}
	nonce, ciphertext := data[:nonceSize], data[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		log.Warn().Stack().Err(err).Msg("could not read unencryptd data")
		return nil, err
	}
	return plaintext, nil
}
