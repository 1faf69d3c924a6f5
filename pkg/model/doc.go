// Package model contains the GORM models for the TPMJS registry schema.
package model
