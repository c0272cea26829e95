package config

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
)

// ConfigFileStructure represents the JSON structure of a configuration file.
//
// It provides a hierarchical data structure that supports:
//   - Nested sections (e.g., "extensions.refstorage")
//   - Single-valued keys (strings)
//   - Multi-valued keys (arrays, e.g., "transfer.hiderefs")
//   - Dynamic schema (keys can be added at any level)
//
// Example JSON structure:
//
//	{
//	  "core": {
//	    "logallrefupdates": "true"
//	  },
//	  "extensions": {
//	    "refstorage": "boltdb"
//	  },
//	  "transfer": {
//	    "hiderefs": ["refs/hidden", "!refs/hidden/but-visible"]
//	  }
//	}
type ConfigFileStructure struct {
	data map[string]any
}

// NewConfigFileStructure creates a new empty ConfigFileStructure.
func NewConfigFileStructure() *ConfigFileStructure {
	return &ConfigFileStructure{
		data: make(map[string]any),
	}
}

// UnmarshalJSON implements json.Unmarshaler
func (c *ConfigFileStructure) UnmarshalJSON(data []byte) error {
	c.data = make(map[string]any)
	return json.Unmarshal(data, &c.data)
}

// MarshalJSON implements json.Marshaler
func (c *ConfigFileStructure) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.data)
}

// Range iterates over all top-level keys and values in the configuration.
// The callback function can return an error to stop iteration early.
func (c *ConfigFileStructure) Range(fn func(key string, value any) error) error {
	for key, value := range c.data {
		if err := fn(key, value); err != nil {
			return err
		}
	}
	return nil
}

// SetNestedValue sets a value in the configuration using dot notation.
//
// The key path uses dots to separate nested levels. Missing intermediate
// objects are automatically created.
//
// Value handling behavior:
//   - If key doesn't exist: creates a new entry with the value
//   - If key exists with a string: converts to array [oldValue, newValue]
//   - If key exists with an array: appends newValue to the array
//   - If key exists with a nested object: no action (preserves structure)
func (c *ConfigFileStructure) SetNestedValue(keyPath, value string) error {
	pathSegments := strings.Split(keyPath, ".")
	if len(pathSegments) == 0 || keyPath == "" {
		return NewInvalidValueError(keyPath, fmt.Errorf("empty key path"))
	}

	finalKey := pathSegments[len(pathSegments)-1]
	target := c.navigateToTargetObject(pathSegments[:len(pathSegments)-1])

	c.setValueInObject(target, finalKey, value)
	return nil
}

// navigateToTargetObject walks the object hierarchy, creating maps as needed,
// and returns the object where the final key-value should be set.
func (c *ConfigFileStructure) navigateToTargetObject(pathSegments []string) map[string]any {
	currentObject := c.data

	for _, segment := range pathSegments {
		if !c.hasValidObjectProperty(currentObject, segment) {
			currentObject[segment] = make(map[string]any)
		}
		currentObject = currentObject[segment].(map[string]any)
	}

	return currentObject
}

// hasValidObjectProperty verifies a property exists and is a nested map,
// making it suitable for further navigation.
func (c *ConfigFileStructure) hasValidObjectProperty(obj map[string]any, propertyKey string) bool {
	_, exists := obj[propertyKey]
	return exists && reflect.TypeOf(obj[propertyKey]).Kind() == reflect.Map
}

// setValueInObject sets a value in an object, converting single values into
// arrays when a key is set more than once.
func (c *ConfigFileStructure) setValueInObject(targetObject map[string]any, key, newValue string) {
	existingValue, exists := targetObject[key]
	if !exists {
		targetObject[key] = newValue
		return
	}

	if arr, ok := existingValue.([]any); ok {
		targetObject[key] = append(arr, newValue)
		return
	}

	if strVal, ok := existingValue.(string); ok {
		targetObject[key] = []any{strVal, newValue}
		return
	}

	if _, ok := existingValue.(map[string]any); ok {
		return
	}

	targetObject[key] = []any{existingValue, newValue}
}
